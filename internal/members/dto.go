package members

import (
	"time"

	"github.com/google/uuid"

	"github.com/retechci/retechci-backend/internal/cachet"
	"github.com/retechci/retechci-backend/pkg/db/models"
	"github.com/retechci/retechci-backend/pkg/enums"
)

// MemberDTO is the member record as returned to administrators and to the member.
type MemberDTO struct {
	ID               uuid.UUID             `json:"id"`
	Name             string                `json:"name"`
	Specialty        string                `json:"specialty"`
	Email            string                `json:"email"`
	Phone            string                `json:"phone"`
	Bio              string                `json:"bio"`
	AvatarURL        string                `json:"avatar_url"`
	Availability     enums.Availability    `json:"availability"`
	Filmography      []models.Film         `json:"filmography"`
	Skills           []string              `json:"skills"`
	Gallery          []models.GalleryPhoto `json:"gallery"`
	Role             enums.MemberRole      `json:"role"`
	RoleLabel        string                `json:"role_label"`
	Status           enums.MemberStatus    `json:"status"`
	StatusLabel      string                `json:"status_label"`
	TwoFactorEnabled bool                  `json:"two_factor_enabled"`
	MembershipPaid   bool                  `json:"membership_paid"`
	PaymentHistory   []models.Payment      `json:"payment_history"`
	LastLoginAt      *time.Time            `json:"last_login_at,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
}

// FromModel copies a member into its DTO. The password hash never leaves the service.
func FromModel(m models.Member) MemberDTO {
	c := m.Clone()
	return MemberDTO{
		ID:               c.ID,
		Name:             c.Name,
		Specialty:        c.Specialty,
		Email:            c.Email,
		Phone:            c.Phone,
		Bio:              c.Bio,
		AvatarURL:        c.AvatarURL,
		Availability:     c.Availability,
		Filmography:      nonNil(c.Filmography),
		Skills:           nonNil(c.Skills),
		Gallery:          nonNil(c.Gallery),
		Role:             c.Role,
		RoleLabel:        c.Role.Label(),
		Status:           c.Status,
		StatusLabel:      c.Status.Label(),
		TwoFactorEnabled: c.TwoFactorEnabled,
		MembershipPaid:   c.MembershipPaid,
		PaymentHistory:   nonNil(c.PaymentHistory),
		LastLoginAt:      c.LastLoginAt,
		CreatedAt:        c.CreatedAt,
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// TechnicianDTO is the public directory card: no contact details beyond what the
// portal shows, plus the reputation report.
type TechnicianDTO struct {
	ID           uuid.UUID             `json:"id"`
	Name         string                `json:"name"`
	Specialty    string                `json:"specialty"`
	Bio          string                `json:"bio"`
	AvatarURL    string                `json:"avatar_url"`
	Availability enums.Availability    `json:"availability"`
	Status       enums.MemberStatus    `json:"status"`
	Filmography  []models.Film         `json:"filmography"`
	Skills       []string              `json:"skills"`
	Gallery      []models.GalleryPhoto `json:"gallery"`
	Cachet       cachet.Report         `json:"cachet"`
}

func technicianFromModel(m models.Member, salaries cachet.SalaryTable) TechnicianDTO {
	c := m.Clone()
	return TechnicianDTO{
		ID:           c.ID,
		Name:         c.Name,
		Specialty:    c.Specialty,
		Bio:          c.Bio,
		AvatarURL:    c.AvatarURL,
		Availability: c.Availability,
		Status:       c.Status,
		Filmography:  nonNil(c.Filmography),
		Skills:       nonNil(c.Skills),
		Gallery:      nonNil(c.Gallery),
		Cachet:       cachet.Evaluate(c, salaries),
	}
}
