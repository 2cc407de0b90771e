package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/taskswap/taskswap/internal/handlers"
	"github.com/taskswap/taskswap/internal/middleware"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery(h.Logger))
	r.Use(middleware.RequestLogger(h.Logger))
	r.Use(middleware.Metrics(h.Metrics))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     h.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	requireAuth := middleware.AuthMiddleware(h.Issuer, h.Users)

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
		api.GET("/ws", middleware.WebSocketAuthMiddleware(h.Issuer, h.Users), h.WebSocket)

		auth := api.Group("/auth")
		{
			auth.POST("/register", h.CreateUser)
			auth.POST("/login", h.LoginUser)
			auth.GET("/me", requireAuth, h.Me)
			auth.PUT("/me", requireAuth, h.UpdateUser)
		}

		tasks := api.Group("/tasks", requireAuth)
		{
			tasks.GET("", h.ListTasks)
			tasks.POST("", h.CreateTask)
			tasks.GET("/completed", h.ListCompletedTasks)
			tasks.GET("/user/:userId", h.ListUserTasks)
			tasks.GET("/:id", h.GetTask)
			tasks.PUT("/:id", h.UpdateTask)
			tasks.DELETE("/:id", h.DeleteTask)
			tasks.POST("/:id", h.CompleteTask)
			tasks.POST("/:id/propose", h.ProposeSwap)

			// Proposal endpoints
			tasks.GET("/:id/proposals", h.ListProposals)
			tasks.PUT("/:id/proposals/:proposalId", h.UpdateProposalStatus)
		}

		messages := api.Group("/messages", requireAuth)
		{
			messages.GET("/:taskId", h.ListMessages)
			messages.POST("", h.SendMessage)
		}
	}

	return r
}
