package applications

import (
	"time"

	"github.com/google/uuid"

	"github.com/retechci/retechci-backend/internal/members"
	"github.com/retechci/retechci-backend/internal/store"
	"github.com/retechci/retechci-backend/pkg/config"
	"github.com/retechci/retechci-backend/pkg/db/models"
	"github.com/retechci/retechci-backend/pkg/enums"
)

// newMember derives the member record an activated application produces.
func newMember(app models.MembershipApplication, passwordHash string, cfg config.MembershipConfig, now time.Time) models.Member {
	return models.Member{
		ID:             uuid.New(),
		Name:           app.FullName(),
		Specialty:      app.Specialty,
		Email:          store.NormalizeEmail(app.Email),
		Phone:          app.Phone,
		Bio:            app.Bio,
		AvatarURL:      members.AvatarURL(cfg.AvatarBaseURL, app.FirstName+app.LastName),
		Availability:   enums.AvailabilityAvailable,
		Filmography:    []models.Film{},
		Skills:         []string{},
		Gallery:        []models.GalleryPhoto{},
		Role:           enums.MemberRoleMember,
		Status:         enums.MemberStatusActive,
		MembershipPaid: false,
		PaymentHistory: []models.Payment{{
			Year:   now.Year(),
			Amount: cfg.AnnualFee,
			Status: enums.PaymentStatusUnpaid,
		}},
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
