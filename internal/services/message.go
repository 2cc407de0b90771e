package services

import (
	"context"
	"strings"
	"time"

	"github.com/taskswap/taskswap/internal/models"
	"github.com/taskswap/taskswap/internal/types"
	"gorm.io/gorm"
)

type MessageService struct {
	db        *gorm.DB
	timeout   time.Duration
	publisher Publisher
}

// NewMessageService builds the chat message service. publisher may be nil,
// in which case Broadcast requests are ignored.
func NewMessageService(db *gorm.DB, timeout time.Duration, publisher Publisher) *MessageService {
	return &MessageService{db: db, timeout: timeout, publisher: publisher}
}

type SendMessageInput struct {
	TaskID     string
	SenderID   string
	SenderName string
	Text       string

	// Broadcast asks for live fan-out to the task's room once the message is
	// stored.
	Broadcast bool
}

// MessageView is a message with its sender expanded.
type MessageView struct {
	ID         string          `json:"id"`
	TaskID     string          `json:"taskId"`
	Text       string          `json:"text"`
	Sender     types.SenderRef `json:"sender"`
	SenderName string          `json:"senderName"`
	Timestamp  time.Time       `json:"timestamp"`
	Status     string          `json:"status"`
}

func NewMessageView(msg models.Message, senderName string) MessageView {
	return MessageView{
		ID:         msg.ID,
		TaskID:     msg.TaskID,
		Text:       msg.Text,
		Sender:     types.SenderRef{ID: msg.SenderID, Name: senderName},
		SenderName: msg.SenderName,
		Timestamp:  msg.Timestamp,
		Status:     msg.Status,
	}
}

// ListMessages returns a task's messages oldest first. Sender names come
// from the sender's current profile, falling back to the name captured at
// send time when the user no longer exists.
func (s *MessageService) ListMessages(ctx context.Context, taskID string) ([]MessageView, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.requireTask(ctx, taskID); err != nil {
		return nil, err
	}

	var messages []models.Message

	if err := s.db.WithContext(ctx).Preload("Sender").Where("task_id = ?", taskID).Order("timestamp ASC, id ASC").Find(&messages).Error; err != nil {
		return nil, persistenceError("fetch messages", err)
	}

	views := make([]MessageView, 0, len(messages))

	for _, msg := range messages {
		name := msg.SenderName
		if msg.Sender != nil {
			name = msg.Sender.Name
		}
		views = append(views, NewMessageView(msg, name))
	}

	return views, nil
}

func (s *MessageService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	text := strings.TrimSpace(in.Text)
	senderName := strings.TrimSpace(in.SenderName)

	if in.TaskID == "" || text == "" || in.SenderID == "" || senderName == "" {
		return nil, validationError("Missing required fields: taskId, text, or sender")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.requireTask(ctx, in.TaskID); err != nil {
		return nil, err
	}

	msg := models.Message{
		TaskID:     in.TaskID,
		Text:       text,
		SenderID:   in.SenderID,
		SenderName: senderName,
		Timestamp:  time.Now().UTC(),
		Status:     types.MessageStatusSent,
	}

	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, persistenceError("send message", err)
	}

	if in.Broadcast && s.publisher != nil {
		s.publisher.MessageCreated(msg)
	}

	return &msg, nil
}

func (s *MessageService) requireTask(ctx context.Context, taskID string) error {
	var count int64

	if err := s.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", taskID).Count(&count).Error; err != nil {
		return persistenceError("fetch task", err)
	}

	if count == 0 {
		return notFoundError("Task")
	}

	return nil
}
