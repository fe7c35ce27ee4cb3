package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"agencyblog/internal/middleware"
	"agencyblog/internal/models"
	"agencyblog/internal/services"

	"github.com/gin-gonic/gin"
)

type LikeHandler struct {
	likes *services.LikeLedger
	log   *slog.Logger
}

func NewLikeHandler(likes *services.LikeLedger, log *slog.Logger) *LikeHandler {
	return &LikeHandler{likes: likes, log: log}
}

type postLikeRequest struct {
	PostID   string `json:"postId"`
	PostSlug string `json:"postSlug"`
}

// ToggleComment handles POST /comments/:id/like.
func (h *LikeHandler) ToggleComment(c *gin.Context) {
	h.toggle(c, models.TargetComment, c.Param("id"))
}

// CommentStatus handles GET /comments/:id/like.
func (h *LikeHandler) CommentStatus(c *gin.Context) {
	h.status(c, models.TargetComment, c.Param("id"))
}

// TogglePost handles POST /likes.
func (h *LikeHandler) TogglePost(c *gin.Context) {
	var req postLikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	h.toggle(c, models.TargetPost, req.PostID)
}

// PostStatus handles GET /likes?postId.
func (h *LikeHandler) PostStatus(c *gin.Context) {
	h.status(c, models.TargetPost, c.Query("postId"))
}

// Likers handles GET /likes/users?postId&limit.
func (h *LikeHandler) Likers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	likers, err := h.likes.TopLikers(c.Request.Context(), c.Query("postId"), limit)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, likers)
}

func (h *LikeHandler) toggle(c *gin.Context, target models.TargetType, targetID string) {
	state, err := h.likes.Toggle(c.Request.Context(), target, targetID, middleware.CurrentUserID(c))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *LikeHandler) status(c *gin.Context, target models.TargetType, targetID string) {
	state, err := h.likes.Status(c.Request.Context(), target, targetID, middleware.CurrentUserID(c))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, state)
}
