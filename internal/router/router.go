package router

import (
	"log/slog"
	"net/http"

	"agencyblog/internal/handlers"
	"agencyblog/internal/identity"
	"agencyblog/internal/middleware"
	"agencyblog/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

const SessionCookieName = "agencyblog_session"

type Dependencies struct {
	DB            *gorm.DB
	Identity      identity.Adapter
	Comments      *services.CommentService
	Likes         *services.LikeLedger
	SessionSecret string
	Log           *slog.Logger
}

// New builds the engine with middleware and every route registered.
func New(d Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(d.Log))
	r.Use(middleware.AccessLog(d.Log))
	r.HandleMethodNotAllowed = true
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, "not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, "method not allowed")
	})
	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Dependencies) {
	commentHandler := handlers.NewCommentHandler(d.Comments, d.Log)
	likeHandler := handlers.NewLikeHandler(d.Likes, d.Log)
	healthHandler := handlers.NewHealthHandler(d.DB, d.Log)

	r.GET("/healthz", healthHandler.Check)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	store := cookie.NewStore([]byte(d.SessionSecret))
	api := r.Group("/")
	api.Use(sessions.Sessions(SessionCookieName, store))
	api.Use(middleware.Identify(d.Identity))

	// Public routes
	api.GET("/comments", commentHandler.List)             // one nesting level, newest first
	api.GET("/comments/count", commentHandler.Count)      // approved comments on a post
	api.GET("/comments/:id", commentHandler.Get)          // approved, or the caller's own
	api.GET("/comments/:id/like", likeHandler.CommentStatus)
	api.GET("/likes", likeHandler.PostStatus)
	api.GET("/likes/users", likeHandler.Likers)

	// Protected routes
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/comments", commentHandler.Create)
		authorized.PATCH("/comments/:id", commentHandler.Update)
		authorized.DELETE("/comments/:id", commentHandler.Delete) // soft delete
		authorized.POST("/comments/:id/like", likeHandler.ToggleComment)
		authorized.POST("/likes", likeHandler.TogglePost)
	}
}
