package applications

import (
	"time"

	"github.com/google/uuid"

	"github.com/retechci/retechci-backend/internal/members"
	"github.com/retechci/retechci-backend/pkg/db/models"
	"github.com/retechci/retechci-backend/pkg/enums"
	"github.com/retechci/retechci-backend/pkg/pagination"
)

// SubmitInput is the public intake form.
type SubmitInput struct {
	FirstName  string  `json:"first_name" validate:"required"`
	LastName   string  `json:"last_name" validate:"required"`
	Email      string  `json:"email" validate:"required"`
	Phone      string  `json:"phone"`
	Specialty  string  `json:"specialty" validate:"required"`
	Bio        string  `json:"bio" validate:"required"`
	Motivation string  `json:"motivation" validate:"required"`
	CVFileName *string `json:"cv_file_name,omitempty"`
}

// ApplicationDTO is the application as shown to reviewers.
type ApplicationDTO struct {
	ID         uuid.UUID               `json:"id"`
	FirstName  string                  `json:"first_name"`
	LastName   string                  `json:"last_name"`
	Email      string                  `json:"email"`
	Phone      string                  `json:"phone"`
	Specialty  string                  `json:"specialty"`
	Bio        string                  `json:"bio"`
	Motivation string                  `json:"motivation"`
	CVFileName *string                 `json:"cv_file_name,omitempty"`
	Status     enums.ApplicationStatus `json:"status"`
	Date       time.Time               `json:"date"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

func FromModel(app models.MembershipApplication) ApplicationDTO {
	return ApplicationDTO{
		ID:         app.ID,
		FirstName:  app.FirstName,
		LastName:   app.LastName,
		Email:      app.Email,
		Phone:      app.Phone,
		Specialty:  app.Specialty,
		Bio:        app.Bio,
		Motivation: app.Motivation,
		CVFileName: app.CVFileName,
		Status:     app.Status,
		Date:       app.CreatedAt,
		UpdatedAt:  app.UpdatedAt,
	}
}

// ListParams filters the reviewer listing.
type ListParams struct {
	Status *enums.ApplicationStatus
	pagination.Params
}

// ActivationResult is returned once to the administrator who activated the
// application. TemporaryPassword is never stored in clear.
type ActivationResult struct {
	Member            members.MemberDTO `json:"member"`
	Application       ApplicationDTO    `json:"application"`
	TemporaryPassword string            `json:"temporary_password"`
}
