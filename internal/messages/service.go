// Package messages handles the public contact form and the admin inbox.
package messages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/retechci/retechci-backend/internal/access"
	"github.com/retechci/retechci-backend/internal/store"
	"github.com/retechci/retechci-backend/pkg/db/models"
	pkgerrors "github.com/retechci/retechci-backend/pkg/errors"
	"github.com/retechci/retechci-backend/pkg/logger"
	"github.com/retechci/retechci-backend/pkg/pagination"
	"github.com/retechci/retechci-backend/pkg/types"
)

const maxMessageLength = 5000

type repository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	List(ctx context.Context, params listParams) ([]models.ContactMessage, error)
	MarkRead(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service defines contact message operations.
type Service interface {
	Send(ctx context.Context, input SendInput) (*MessageDTO, error)
	List(ctx context.Context, actor access.Actor, params ListParams) (*types.Page[MessageDTO], error)
	MarkRead(ctx context.Context, actor access.Actor, id uuid.UUID) error
	PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SendInput is the public contact form payload.
type SendInput struct {
	SenderName  string `json:"sender_name" validate:"required"`
	SenderEmail string `json:"sender_email" validate:"required,email"`
	Subject     string `json:"subject" validate:"required"`
	Message     string `json:"message" validate:"required"`
}

// ListParams configures the inbox listing.
type ListParams struct {
	UnreadOnly bool
	pagination.Params
}

type MessageDTO struct {
	ID          uuid.UUID `json:"id"`
	SenderName  string    `json:"sender_name"`
	SenderEmail string    `json:"sender_email"`
	Subject     string    `json:"subject"`
	Message     string    `json:"message"`
	Date        time.Time `json:"date"`
	Read        bool      `json:"read"`
}

func FromModel(m models.ContactMessage) MessageDTO {
	return MessageDTO{
		ID:          m.ID,
		SenderName:  m.SenderName,
		SenderEmail: m.SenderEmail,
		Subject:     m.Subject,
		Message:     m.Message,
		Date:        m.CreatedAt,
		Read:        m.Read,
	}
}

type service struct {
	repo repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires message dependencies. now may be nil.
func NewService(repo repository, logg *logger.Logger, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("messages repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, logg: logg, now: func() time.Time { return now().UTC() }}, nil
}

func (s *service) Send(ctx context.Context, input SendInput) (*MessageDTO, error) {
	msg := models.ContactMessage{
		ID:          uuid.New(),
		SenderName:  strings.TrimSpace(input.SenderName),
		SenderEmail: store.NormalizeEmail(input.SenderEmail),
		Subject:     strings.TrimSpace(input.Subject),
		Message:     strings.TrimSpace(input.Message),
		CreatedAt:   s.now(),
	}
	if err := validate(msg); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &msg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store contact message")
	}
	s.logg.Info(s.logg.WithField(ctx, "message_id", msg.ID.String()), "contact message received")
	dto := FromModel(msg)
	return &dto, nil
}

func (s *service) List(ctx context.Context, actor access.Actor, params ListParams) (*types.Page[MessageDTO], error) {
	if err := access.Check(actor.Role, access.ReadMessages); err != nil {
		return nil, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, listParams{UnreadOnly: params.UnreadOnly, Cursor: cursor, Limit: params.Limit})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contact messages")
	}

	page, next := pagination.Trim(rows, params.Limit, func(m models.ContactMessage) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	})
	items := make([]MessageDTO, 0, len(page))
	for _, m := range page {
		items = append(items, FromModel(m))
	}
	return &types.Page[MessageDTO]{Items: items, NextCursor: next}, nil
}

func (s *service) MarkRead(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	if err := access.Check(actor.Role, access.ReadMessages); err != nil {
		return err
	}
	found, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark message read")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "message not found")
	}
	return nil
}

// PurgeRead deletes read messages older than the retention window.
func (s *service) PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "retention must be positive")
	}
	deleted, err := s.repo.DeleteReadBefore(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge read messages")
	}
	return deleted, nil
}

func validate(m models.ContactMessage) error {
	fields := map[string]string{}
	if m.SenderName == "" {
		fields["sender_name"] = "required"
	}
	if !strings.Contains(m.SenderEmail, "@") {
		fields["sender_email"] = "must contain @"
	}
	if m.Subject == "" {
		fields["subject"] = "required"
	}
	if m.Message == "" {
		fields["message"] = "required"
	} else if len([]rune(m.Message)) > maxMessageLength {
		fields["message"] = fmt.Sprintf("must be at most %d characters", maxMessageLength)
	}
	if len(fields) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid contact message").
		WithDetails(map[string]any{"fields": fields})
}
