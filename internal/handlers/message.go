package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskswap/taskswap/internal/services"
	"github.com/taskswap/taskswap/internal/utils"
)

type SendMessageRequest struct {
	TaskID    string `json:"taskId" binding:"required"`
	Text      string `json:"text" binding:"required"`
	Broadcast bool   `json:"broadcast"`
}

func (h *Handler) ListMessages(ctx *gin.Context) {
	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	messages, err := h.Messages.ListMessages(ctx.Request.Context(), taskID)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, messages)
}

// SendMessage stores a message from the authenticated user. Room members
// only see it live when the request sets broadcast.
func (h *Handler) SendMessage(ctx *gin.Context) {
	var body SendMessageRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: taskId or text"})
		return
	}

	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	msg, err := h.Messages.SendMessage(ctx.Request.Context(), services.SendMessageInput{
		TaskID:     body.TaskID,
		SenderID:   user.ID,
		SenderName: user.Name,
		Text:       body.Text,
		Broadcast:  body.Broadcast,
	})

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.Metrics.ObserveMessage("rest")

	ctx.JSON(http.StatusCreated, services.NewMessageView(*msg, msg.SenderName))
}
