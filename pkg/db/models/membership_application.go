package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/retechci/retechci-backend/pkg/enums"
)

// MembershipApplication is a candidate's request to join the association.
// Only Status changes after creation.
type MembershipApplication struct {
	ID         uuid.UUID               `gorm:"column:id;primaryKey"`
	FirstName  string                  `gorm:"column:first_name;not null"`
	LastName   string                  `gorm:"column:last_name;not null"`
	Email      string                  `gorm:"column:email;not null"`
	Phone      string                  `gorm:"column:phone;not null"`
	Specialty  string                  `gorm:"column:specialty;not null"`
	Bio        string                  `gorm:"column:bio;not null"`
	Motivation string                  `gorm:"column:motivation;not null"`
	CVFileName *string                 `gorm:"column:cv_file_name"`
	Status     enums.ApplicationStatus `gorm:"column:status;not null"`
	CreatedAt  time.Time               `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time               `gorm:"column:updated_at;not null"`
}

func (MembershipApplication) TableName() string {
	return "membership_applications"
}

// FullName joins first and last name the way member records display them.
func (a MembershipApplication) FullName() string {
	return a.FirstName + " " + a.LastName
}
