package utils

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

// GetTaskID reads the task id from either the :id or the :taskId segment.
func GetTaskID(ctx *gin.Context) (string, error) {
	if ctx.Param("id") == "" {
		return pathParam(ctx, "taskId", "Task ID")
	}
	return pathParam(ctx, "id", "Task ID")
}

func GetProposalID(ctx *gin.Context) (string, error) {
	return pathParam(ctx, "proposalId", "Proposal ID")
}

func GetUserID(ctx *gin.Context) (string, error) {
	return pathParam(ctx, "userId", "User ID")
}

func pathParam(ctx *gin.Context, name, label string) (string, error) {
	value := strings.TrimSpace(ctx.Param(name))

	if value == "" {
		return "", errors.New(label + " not found")
	}

	return value, nil
}
