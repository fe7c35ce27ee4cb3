package handlers

import (
	"log/slog"
	"net/http"

	"agencyblog/internal/middleware"
	"agencyblog/internal/services"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.CommentService
	log      *slog.Logger
}

func NewCommentHandler(comments *services.CommentService, log *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, log: log}
}

type createCommentRequest struct {
	PostID   string `json:"postId"`
	PostSlug string `json:"postSlug"`
	Body     string `json:"body"`
	ParentID string `json:"parentId"`
}

type updateCommentRequest struct {
	Body string `json:"body"`
}

// List handles GET /comments?postId&parentId&cursor&limit.
func (h *CommentHandler) List(c *gin.Context) {
	page, err := h.comments.List(c.Request.Context(), middleware.CurrentUserID(c), services.ListCommentsInput{
		PostID:   c.Query("postId"),
		ParentID: c.Query("parentId"),
		Limit:    c.Query("limit"),
		Cursor:   c.Query("cursor"),
	})
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *CommentHandler) Count(c *gin.Context) {
	n, err := h.comments.Count(c.Request.Context(), c.Query("postId"))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *CommentHandler) Get(c *gin.Context) {
	view, err := h.comments.Get(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CommentHandler) Create(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	comment, err := h.comments.Create(c.Request.Context(), middleware.CurrentUserID(c), services.CreateCommentInput{
		PostID:   req.PostID,
		PostSlug: req.PostSlug,
		ParentID: req.ParentID,
		Body:     req.Body,
	})
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) Update(c *gin.Context) {
	var req updateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	comment, err := h.comments.Update(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), req.Body)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	if err := h.comments.SoftDelete(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
