package models

import "gorm.io/datatypes"

type Task struct {
	BaseModel

	Title        string                      `gorm:"not null" json:"title"`
	Description  string                      `gorm:"type:text;not null" json:"description"`
	OfferedSkill string                      `gorm:"not null" json:"offeredSkill"`
	SkillsNeeded datatypes.JSONSlice[string] `gorm:"not null" json:"skillsNeeded"`
	Status       string                      `gorm:"type:varchar(32);not null;default:open;index" json:"status"` // "open", "in-progress", "completed"
	CreatedBy    string                      `gorm:"type:varchar(36);not null;index" json:"createdBy"`           // immutable after creation

	// Relationships
	Creator   *User       `gorm:"foreignKey:CreatedBy;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Proposals []Proposal  `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"proposals"`
	Skills    []TaskSkill `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// TaskSkill indexes Task.SkillsNeeded one row per skill so the skill filter
// is a plain indexed lookup on every dialect.
type TaskSkill struct {
	TaskID string `gorm:"type:varchar(36);primaryKey"`
	Skill  string `gorm:"type:varchar(255);primaryKey;index"`
}
