package handlers

import (
	"github.com/taskswap/taskswap/internal/auth"
	"github.com/taskswap/taskswap/internal/metrics"
	"github.com/taskswap/taskswap/internal/realtime"
	"github.com/taskswap/taskswap/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler carries the dependencies shared by every route.
type Handler struct {
	DB       *gorm.DB
	Tasks    *services.TaskService
	Messages *services.MessageService
	Users    *services.UserService
	Issuer   *auth.Issuer
	Hub      *realtime.Hub
	Broker   *realtime.Broker
	Metrics  *metrics.Metrics
	Logger   *zap.Logger

	AllowedOrigins []string
}
