package models

import "gorm.io/datatypes"

type User struct {
	BaseModel

	Name         string                      `gorm:"not null" json:"name"`
	Email        string                      `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string                      `gorm:"not null" json:"-"`
	Bio          string                      `json:"bio,omitempty"`
	Skills       datatypes.JSONSlice[string] `json:"skills"`
	Location     string                      `json:"location,omitempty"`
}
