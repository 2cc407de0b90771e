package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Proposal struct {
	ID            string                      `gorm:"type:varchar(36);primaryKey" json:"id"`
	TaskID        string                      `gorm:"type:varchar(36);not null;index" json:"taskId"`
	UserID        string                      `gorm:"type:varchar(36);not null;index" json:"userId"`
	OfferedSkills datatypes.JSONSlice[string] `gorm:"not null" json:"offeredSkills"`
	Message       string                      `gorm:"type:text;not null" json:"message"`
	Status        string                      `gorm:"type:varchar(32);not null;default:pending" json:"status"` // "pending", "accepted", "rejected"
	Timestamp     time.Time                   `gorm:"not null;index" json:"timestamp"`

	// Relationships
	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (p *Proposal) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
