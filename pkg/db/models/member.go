package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/retechci/retechci-backend/pkg/db/types"
	"github.com/retechci/retechci-backend/pkg/enums"
)

// Member is an admitted technician. Email is stored lower-cased and unique.
type Member struct {
	ID               uuid.UUID                      `gorm:"column:id;primaryKey"`
	Name             string                         `gorm:"column:name;not null"`
	Specialty        string                         `gorm:"column:specialty;not null"`
	Email            string                         `gorm:"column:email;not null;uniqueIndex:idx_members_email"`
	Phone            string                         `gorm:"column:phone;not null"`
	Bio              string                         `gorm:"column:bio;not null"`
	AvatarURL        string                         `gorm:"column:avatar_url;not null"`
	Availability     enums.Availability             `gorm:"column:availability;not null"`
	Filmography      dbtypes.JSONList[Film]         `gorm:"column:filmography;not null"`
	Skills           dbtypes.JSONList[string]       `gorm:"column:skills;not null"`
	Gallery          dbtypes.JSONList[GalleryPhoto] `gorm:"column:gallery;not null"`
	Role             enums.MemberRole               `gorm:"column:role;not null"`
	Status           enums.MemberStatus             `gorm:"column:status;not null"`
	TwoFactorEnabled bool                           `gorm:"column:two_factor_enabled;not null"`
	MembershipPaid   bool                           `gorm:"column:membership_paid;not null"`
	PaymentHistory   dbtypes.JSONList[Payment]      `gorm:"column:payment_history;not null"`
	PasswordHash     string                         `gorm:"column:password_hash;not null"`
	LastLoginAt      *time.Time                     `gorm:"column:last_login_at"`
	CreatedAt        time.Time                      `gorm:"column:created_at;not null"`
	UpdatedAt        time.Time                      `gorm:"column:updated_at;not null"`
}

func (Member) TableName() string {
	return "members"
}

// Clone deep-copies the nested collections so callers can mutate freely.
func (m Member) Clone() Member {
	out := m
	out.Filmography = m.Filmography.Clone()
	out.Skills = m.Skills.Clone()
	out.Gallery = m.Gallery.Clone()
	out.PaymentHistory = m.PaymentHistory.Clone()
	if m.LastLoginAt != nil {
		at := *m.LastLoginAt
		out.LastLoginAt = &at
	}
	return out
}

// PaymentFor returns the index of the payment entry for year, or -1.
func (m Member) PaymentFor(year int) int {
	for i, p := range m.PaymentHistory {
		if p.Year == year {
			return i
		}
	}
	return -1
}

// Payment is one year of membership dues.
type Payment struct {
	Year   int                 `json:"year"`
	Amount int64               `json:"amount"`
	Status enums.PaymentStatus `json:"status"`
	PaidAt *time.Time          `json:"paid_at,omitempty"`
}

// GalleryPhoto is a portfolio image reference.
type GalleryPhoto struct {
	ID      uuid.UUID `json:"id"`
	URL     string    `json:"url"`
	Caption string    `json:"caption"`
	AddedAt time.Time `json:"added_at"`
}
