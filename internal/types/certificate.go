package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Generation states for a certificate image.
const (
	GenerationPending   = "PENDING"
	GenerationGenerated = "GENERATED"
)

// Delivery states for a certificate email.
const (
	EmailNotSent = "NOT_SENT"
	EmailSent    = "SENT"
	EmailFailed  = "FAILED"
)

type Certificate struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code string    `gorm:"uniqueIndex;not null;column:code" json:"code"`

	RecipientName string                      `gorm:"not null;column:recipient_name" json:"recipient_name"`
	Email         string                      `gorm:"index;not null;column:email" json:"email"`
	WorkshopName  string                      `gorm:"not null;column:workshop_name" json:"workshop_name"`
	IssueDate     string                      `gorm:"not null;column:issue_date" json:"issue_date"`
	Skills        datatypes.JSONSlice[string] `gorm:"column:skills" json:"skills"`
	Instructor    string                      `gorm:"not null;column:instructor" json:"instructor"`

	IsVerified       bool   `gorm:"not null;default:true;column:is_verified" json:"is_verified"`
	VerificationCode string `gorm:"uniqueIndex;not null;column:verification_code" json:"verification_code"`

	// Image generation. FilePath is set only once the PNG is confirmed
	// written under the media root (relative, e.g. certificates/ACM-2024-AB12.png).
	Status   string `gorm:"not null;default:PENDING;column:status" json:"status"`
	FilePath string `gorm:"column:file_path" json:"file_path,omitempty"`

	// Email delivery tracking.
	EmailStatus string     `gorm:"index;not null;default:NOT_SENT;column:email_status" json:"email_status"`
	EmailSentAt *time.Time `gorm:"column:email_sent_at" json:"email_sent_at,omitempty"`
	EmailError  string     `gorm:"type:text;column:email_error" json:"email_error,omitempty"`

	CreatedAt time.Time `gorm:"index;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Certificate) TableName() string {
	return "certificates"
}
