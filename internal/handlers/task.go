package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskswap/taskswap/internal/models"
	"github.com/taskswap/taskswap/internal/services"
	"github.com/taskswap/taskswap/internal/types"
	"github.com/taskswap/taskswap/internal/utils"
)

type CreateTaskRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description" binding:"required"`
	OfferedSkill string   `json:"offeredSkill" binding:"required"`
	SkillsNeeded []string `json:"skillsNeeded" binding:"required,min=1"`
}

type ProposeSwapRequest struct {
	OfferedSkills []string `json:"offeredSkills" binding:"required,min=1"`
	Message       string   `json:"message" binding:"required"`
}

type UpdateProposalRequest struct {
	Status string `json:"status" binding:"required"`
}

// TaskResponse is a task with its creator expanded.
type TaskResponse struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	OfferedSkill string             `json:"offeredSkill"`
	SkillsNeeded []string           `json:"skillsNeeded"`
	Status       string             `json:"status"`
	CreatedBy    types.UserResponse `json:"createdBy"`
	Proposals    []models.Proposal  `json:"proposals"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

func taskResponse(task models.Task) TaskResponse {
	creator := types.UserResponse{ID: task.CreatedBy, Skills: []string{}}
	if task.Creator != nil {
		creator = userResponse(*task.Creator)
	}

	proposals := task.Proposals
	if proposals == nil {
		proposals = []models.Proposal{}
	}

	return TaskResponse{
		ID:           task.ID,
		Title:        task.Title,
		Description:  task.Description,
		OfferedSkill: task.OfferedSkill,
		SkillsNeeded: []string(task.SkillsNeeded),
		Status:       task.Status,
		CreatedBy:    creator,
		Proposals:    proposals,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}
}

func taskResponses(tasks []models.Task) []TaskResponse {
	response := make([]TaskResponse, 0, len(tasks))

	for _, task := range tasks {
		response = append(response, taskResponse(task))
	}

	return response
}

func (h *Handler) ListTasks(ctx *gin.Context) {
	tasks, err := h.Tasks.ListTasks(ctx.Request.Context(), services.TaskFilter{
		Status: ctx.Query("status"),
		Skill:  ctx.Query("skill"),
		Sort:   ctx.Query("sort"),
	})

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, taskResponses(tasks))
}

func (h *Handler) ListCompletedTasks(ctx *gin.Context) {
	tasks, err := h.Tasks.ListCompletedTasks(ctx.Request.Context())

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, taskResponses(tasks))
}

func (h *Handler) ListUserTasks(ctx *gin.Context) {
	currentUserID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	userID, err := utils.GetUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tasks, err := h.Tasks.ListTasksByUser(ctx.Request.Context(), currentUserID, userID)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, taskResponses(tasks))
}

func (h *Handler) GetTask(ctx *gin.Context) {
	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.Tasks.GetTask(ctx.Request.Context(), taskID)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, taskResponse(*task))
}

func (h *Handler) CreateTask(ctx *gin.Context) {
	var body CreateTaskRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	task, err := h.Tasks.CreateTask(ctx.Request.Context(), userID, services.CreateTaskInput{
		Title:        body.Title,
		Description:  body.Description,
		OfferedSkill: body.OfferedSkill,
		SkillsNeeded: body.SkillsNeeded,
	})

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, taskResponse(*task))
}

func (h *Handler) UpdateTask(ctx *gin.Context) {
	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var patch services.TaskPatch

	if err := ctx.ShouldBindJSON(&patch); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	task, err := h.Tasks.UpdateTask(ctx.Request.Context(), taskID, userID, patch)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, taskResponse(*task))
}

func (h *Handler) DeleteTask(ctx *gin.Context) {
	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := h.Tasks.DeleteTask(ctx.Request.Context(), taskID, userID); err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

func (h *Handler) CompleteTask(ctx *gin.Context) {
	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	task, err := h.Tasks.CompleteTask(ctx.Request.Context(), taskID, userID)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, taskResponse(*task))
}

func (h *Handler) ProposeSwap(ctx *gin.Context) {
	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body ProposeSwapRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: offeredSkills or message"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	task, err := h.Tasks.ProposeSwap(ctx.Request.Context(), taskID, userID, body.OfferedSkills, body.Message)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.Metrics.ObserveProposal("submitted")

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Swap proposed successfully",
		"task":    taskResponse(*task),
	})
}

func (h *Handler) ListProposals(ctx *gin.Context) {
	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proposals, err := h.Tasks.ListProposals(ctx.Request.Context(), taskID)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, proposals)
}

// UpdateProposalStatus is the owner-only synchronous counterpart of the
// update-proposal websocket event. Unlike the event, failures are reported.
func (h *Handler) UpdateProposalStatus(ctx *gin.Context) {
	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proposalID, err := utils.GetProposalID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body UpdateProposalRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	task, err := h.Tasks.GetTask(ctx.Request.Context(), taskID)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	if task.CreatedBy != userID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to update proposals on this task"})
		return
	}

	proposals, err := h.Tasks.UpdateProposalStatus(ctx.Request.Context(), taskID, proposalID, body.Status)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.Metrics.ObserveProposal(body.Status)

	ctx.JSON(http.StatusOK, proposals)
}
