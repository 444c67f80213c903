package models

import (
	"time"

	"github.com/google/uuid"
)

// ContactMessage is a note left through the public contact form.
type ContactMessage struct {
	ID          uuid.UUID `gorm:"column:id;primaryKey"`
	SenderName  string    `gorm:"column:sender_name;not null"`
	SenderEmail string    `gorm:"column:sender_email;not null"`
	Subject     string    `gorm:"column:subject;not null"`
	Message     string    `gorm:"column:message;not null"`
	Read        bool      `gorm:"column:read;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (ContactMessage) TableName() string {
	return "contact_messages"
}
