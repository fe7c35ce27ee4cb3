package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"agencyblog/internal/middleware"
	"agencyblog/internal/services"

	"github.com/gin-gonic/gin"
)

// Fail writes the error envelope.
func Fail(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"success": false, "error": message})
}

// RespondError maps service errors onto HTTP statuses. Anything that is not a caller-visible
// kind is logged and reported as a generic 500.
func RespondError(c *gin.Context, log *slog.Logger, err error) {
	var de *services.DomainError
	if errors.As(err, &de) {
		Fail(c, statusFor(de.Kind), de.Error())
		return
	}

	log.ErrorContext(c.Request.Context(), "request failed",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetString(middleware.RequestIDKey),
		"user_id", middleware.CurrentUserID(c),
		"error", err,
	)
	Fail(c, http.StatusInternalServerError, "internal server error")
}

func statusFor(kind error) int {
	switch {
	case errors.Is(kind, services.ErrValidation), errors.Is(kind, services.ErrSelfLike):
		return http.StatusBadRequest
	case errors.Is(kind, services.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(kind, services.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func badBody(c *gin.Context) {
	Fail(c, http.StatusBadRequest, "request body must be valid JSON")
}
