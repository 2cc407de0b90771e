package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskswap/taskswap/internal/models"
	"github.com/taskswap/taskswap/internal/services"
	"github.com/taskswap/taskswap/internal/types"
	"github.com/taskswap/taskswap/internal/utils"
	"go.uber.org/zap"
)

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func userResponse(user models.User) types.UserResponse {
	skills := []string(user.Skills)
	if skills == nil {
		skills = []string{}
	}

	return types.UserResponse{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Bio:      user.Bio,
		Skills:   skills,
		Location: user.Location,
	}
}

func (h *Handler) CreateUser(ctx *gin.Context) {
	var body CreateUserRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.Users.Register(ctx.Request.Context(), services.RegisterInput{
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
	})

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.respondWithToken(ctx, http.StatusCreated, *user)
}

func (h *Handler) LoginUser(ctx *gin.Context) {
	var body LoginUserRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.Users.Authenticate(ctx.Request.Context(), body.Email, body.Password)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.respondWithToken(ctx, http.StatusOK, *user)
}

func (h *Handler) respondWithToken(ctx *gin.Context, status int, user models.User) {
	token, err := h.Issuer.GenerateJWT(user.ID, user.Email)

	if err != nil {
		h.Logger.Error("failed to generate token", zap.String("user", user.ID), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(status, gin.H{
		"token": token,
		"user":  userResponse(user),
	})
}

func (h *Handler) Me(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	user, err := h.Users.GetUser(ctx.Request.Context(), userID)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": userResponse(*user)})
}

func (h *Handler) UpdateUser(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var patch services.ProfilePatch

	if err := ctx.ShouldBindJSON(&patch); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.Users.UpdateProfile(ctx.Request.Context(), userID, patch)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"user":    userResponse(*user),
	})
}
