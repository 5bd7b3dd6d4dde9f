package types

import (
	"time"

	"github.com/google/uuid"
)

type Workshop struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"index;not null;column:title" json:"title"`
	Date        string    `gorm:"not null;column:date" json:"date"`
	Description string    `gorm:"type:text;column:description" json:"description,omitempty"`
	Level       string    `gorm:"not null;default:Beginner;column:level" json:"level"`
	Instructor  string    `gorm:"not null;column:instructor" json:"instructor"`
	Image       string    `gorm:"column:image" json:"image,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Workshop) TableName() string {
	return "workshops"
}
