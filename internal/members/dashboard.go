package members

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/retechci/retechci-backend/internal/access"
	"github.com/retechci/retechci-backend/internal/cachet"
	"github.com/retechci/retechci-backend/pkg/db/models"
	"github.com/retechci/retechci-backend/pkg/enums"
	pkgerrors "github.com/retechci/retechci-backend/pkg/errors"
	"github.com/retechci/retechci-backend/pkg/security"
)

const (
	minFilmYear = 1900
	maxFilmYear = 2100
)

// FilmInput is a filmography entry as submitted from the dashboard.
type FilmInput struct {
	Title       string         `json:"title" validate:"required"`
	Year        int            `json:"year" validate:"required"`
	Month       int            `json:"month" validate:"required"`
	Role        string         `json:"role"`
	Type        enums.FilmType `json:"type" validate:"required,enum"`
	ImpactScore int            `json:"impact_score" validate:"required"`
	BoxOffice   *int64         `json:"box_office,omitempty"`
	Audience    *int64         `json:"audience,omitempty"`
}

// PhotoInput adds a portfolio image by URL.
type PhotoInput struct {
	URL     string `json:"url" validate:"required"`
	Caption string `json:"caption"`
}

func (s *service) Get(ctx context.Context, actor access.Actor) (*MemberDTO, error) {
	member, err := s.store.Members().FindByID(ctx, actor.MemberID)
	if err != nil {
		return nil, mapStoreError(err, "load member")
	}
	dto := FromModel(*member)
	return &dto, nil
}

func (s *service) Cachet(ctx context.Context, actor access.Actor) (*cachet.Report, error) {
	member, err := s.store.Members().FindByID(ctx, actor.MemberID)
	if err != nil {
		return nil, mapStoreError(err, "load member")
	}
	salaries, err := s.salaries.Table(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load salary reference")
	}
	report := cachet.Evaluate(*member, salaries)
	return &report, nil
}

func (s *service) SetAvailability(ctx context.Context, actor access.Actor, availability enums.Availability) (*MemberDTO, error) {
	if !availability.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid availability %q", availability)
	}
	return s.selfUpdate(ctx, actor, func(m *models.Member) error {
		m.Availability = availability
		return nil
	})
}

func (s *service) AddFilm(ctx context.Context, actor access.Actor, input FilmInput) (*MemberDTO, error) {
	film, err := filmFromInput(input)
	if err != nil {
		return nil, err
	}
	return s.selfUpdate(ctx, actor, func(m *models.Member) error {
		m.Filmography = append(m.Filmography, film)
		return nil
	})
}

func (s *service) RemoveFilm(ctx context.Context, actor access.Actor, index int) (*MemberDTO, error) {
	return s.selfUpdate(ctx, actor, func(m *models.Member) error {
		if index < 0 || index >= len(m.Filmography) {
			return pkgerrors.Newf(pkgerrors.CodeNotFound, "no filmography entry at index %d", index)
		}
		films := make([]models.Film, 0, len(m.Filmography)-1)
		films = append(films, m.Filmography[:index]...)
		films = append(films, m.Filmography[index+1:]...)
		m.Filmography = films
		return nil
	})
}

func (s *service) SetTwoFactor(ctx context.Context, actor access.Actor, enabled bool) (*MemberDTO, error) {
	return s.selfUpdate(ctx, actor, func(m *models.Member) error {
		m.TwoFactorEnabled = enabled
		return nil
	})
}

// PayMembership records the dues for year as paid. The current year's
// payment also flips the membership_paid flag.
func (s *service) PayMembership(ctx context.Context, actor access.Actor, year int) (*MemberDTO, error) {
	return s.selfUpdate(ctx, actor, func(m *models.Member) error {
		i := m.PaymentFor(year)
		if i < 0 {
			return pkgerrors.Newf(pkgerrors.CodeNotFound, "no membership dues recorded for %d", year)
		}
		if m.PaymentHistory[i].Status == enums.PaymentStatusPaid {
			return pkgerrors.Newf(pkgerrors.CodeConflict, "membership dues for %d already paid", year)
		}
		now := s.now()
		m.PaymentHistory[i].Status = enums.PaymentStatusPaid
		m.PaymentHistory[i].PaidAt = &now
		if year == now.Year() {
			m.MembershipPaid = true
		}
		return nil
	})
}

func (s *service) ChangePassword(ctx context.Context, actor access.Actor, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "old and new passwords are required")
	}
	if err := security.CheckStrength(newPassword); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error()).
			WithDetails(map[string]any{"fields": map[string]string{"new_password": err.Error()}})
	}

	member, err := s.store.Members().FindByID(ctx, actor.MemberID)
	if err != nil {
		return mapStoreError(err, "load member")
	}
	ok, err := s.hasher.Verify(oldPassword, member.PasswordHash)
	if err != nil || !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "old password is incorrect").
			WithDetails(map[string]any{"fields": map[string]string{"old_password": "incorrect"}})
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	_, err = s.update(ctx, actor.MemberID, func(m *models.Member) error {
		m.PasswordHash = hash
		return nil
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithMemberID(ctx, actor.MemberID.String()), "member password changed")
	return nil
}

func (s *service) SetAvatar(ctx context.Context, actor access.Actor, avatarURL string) (*MemberDTO, error) {
	avatarURL, err := imageURL("avatar_url", avatarURL)
	if err != nil {
		return nil, err
	}
	return s.selfUpdate(ctx, actor, func(m *models.Member) error {
		m.AvatarURL = avatarURL
		return nil
	})
}

func (s *service) AddPhoto(ctx context.Context, actor access.Actor, input PhotoInput) (*MemberDTO, error) {
	photoURL, err := imageURL("url", input.URL)
	if err != nil {
		return nil, err
	}
	photo := models.GalleryPhoto{
		ID:      uuid.New(),
		URL:     photoURL,
		Caption: strings.TrimSpace(input.Caption),
		AddedAt: s.now(),
	}
	return s.selfUpdate(ctx, actor, func(m *models.Member) error {
		m.Gallery = append(m.Gallery, photo)
		return nil
	})
}

func (s *service) RemovePhoto(ctx context.Context, actor access.Actor, photoID uuid.UUID) (*MemberDTO, error) {
	return s.selfUpdate(ctx, actor, func(m *models.Member) error {
		kept := make([]models.GalleryPhoto, 0, len(m.Gallery))
		for _, p := range m.Gallery {
			if p.ID != photoID {
				kept = append(kept, p)
			}
		}
		if len(kept) == len(m.Gallery) {
			return pkgerrors.Newf(pkgerrors.CodeNotFound, "no gallery photo %s", photoID)
		}
		m.Gallery = kept
		return nil
	})
}

func (s *service) selfUpdate(ctx context.Context, actor access.Actor, mutate func(*models.Member) error) (*MemberDTO, error) {
	updated, err := s.update(ctx, actor.MemberID, mutate)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*updated)
	return &dto, nil
}

func filmFromInput(in FilmInput) (models.Film, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Role = strings.TrimSpace(in.Role)

	fields := map[string]string{}
	if in.Title == "" {
		fields["title"] = "required"
	}
	if in.Year < minFilmYear || in.Year > maxFilmYear {
		fields["year"] = "out of range"
	}
	if in.Month < 1 || in.Month > 12 {
		fields["month"] = "must be between 1 and 12"
	}
	if in.ImpactScore < 1 || in.ImpactScore > 5 {
		fields["impact_score"] = "must be between 1 and 5"
	}
	if !in.Type.IsValid() {
		fields["type"] = "unknown film type"
	}
	if in.BoxOffice != nil && *in.BoxOffice < 0 {
		fields["box_office"] = "must not be negative"
	}
	if in.Audience != nil && *in.Audience < 0 {
		fields["audience"] = "must not be negative"
	}
	if len(fields) > 0 {
		return models.Film{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid film").
			WithDetails(map[string]any{"fields": fields})
	}

	film := models.Film{
		Title:       in.Title,
		Year:        in.Year,
		Month:       in.Month,
		Role:        in.Role,
		Type:        in.Type,
		ImpactScore: in.ImpactScore,
		BoxOffice:   in.BoxOffice,
		Audience:    in.Audience,
	}
	return film.Normalize(), nil
}

// imageURL accepts absolute http(s) URLs only.
func imageURL(field, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid image url").
			WithDetails(map[string]any{"fields": map[string]string{field: "must be an absolute http(s) URL"}})
	}
	return raw, nil
}
