package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message has no foreign key to tasks: chat history outlives task deletion.
type Message struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	TaskID     string    `gorm:"type:varchar(36);not null;index:idx_messages_task_time,priority:1" json:"taskId"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	SenderID   string    `gorm:"type:varchar(36);not null;index" json:"sender"`
	SenderName string    `gorm:"not null" json:"senderName"`
	Timestamp  time.Time `gorm:"not null;index:idx_messages_task_time,priority:2" json:"timestamp"`
	Status     string    `gorm:"type:varchar(16);not null;default:sent" json:"status"`

	// Relationships
	Sender *User `gorm:"foreignKey:SenderID" json:"-"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
