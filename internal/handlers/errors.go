package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskswap/taskswap/internal/services"
	"go.uber.org/zap"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrSelfProposal):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": message}. Persistence failures carry their
// underlying cause.
func (h *Handler) respondError(ctx *gin.Context, err error) {
	status := statusFor(err)
	message := "Internal server error"

	var svcErr *services.Error

	if errors.As(err, &svcErr) {
		message = svcErr.Message
		if errors.Is(err, services.ErrPersistence) {
			message = svcErr.Error()
		}
	}

	if status >= http.StatusInternalServerError {
		_ = ctx.Error(err)
		h.Logger.Error("request failed", zap.String("path", ctx.FullPath()), zap.Error(err))
	}

	ctx.JSON(status, gin.H{"error": message})
}
