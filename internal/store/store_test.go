package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retechci/retechci-backend/pkg/db/dbtest"
	"github.com/retechci/retechci-backend/pkg/db/models"
	"github.com/retechci/retechci-backend/pkg/enums"
	"github.com/retechci/retechci-backend/pkg/pagination"
)

func eachStore(t *testing.T, run func(t *testing.T, s Store)) {
	t.Helper()
	t.Run("memory", func(t *testing.T) { run(t, NewMemory()) })
	t.Run("gorm", func(t *testing.T) { run(t, NewGorm(dbtest.Open(t))) })
}

var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newApplication(offset time.Duration) *models.MembershipApplication {
	at := baseTime.Add(offset)
	return &models.MembershipApplication{
		ID:         uuid.New(),
		FirstName:  "Awa",
		LastName:   "Traoré",
		Email:      "awa@example.ci",
		Specialty:  "Scripte",
		Bio:        "bio",
		Motivation: "motivation",
		Status:     enums.ApplicationStatusPending,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
}

func newMember(email string, offset time.Duration) *models.Member {
	at := baseTime.Add(offset)
	return &models.Member{
		ID:           uuid.New(),
		Name:         "Awa Traoré",
		Specialty:    "Scripte",
		Email:        email,
		Availability: enums.AvailabilityAvailable,
		Role:         enums.MemberRoleMember,
		Status:       enums.MemberStatusActive,
		PaymentHistory: []models.Payment{
			{Year: 2025, Amount: 25000, Status: enums.PaymentStatusUnpaid},
		},
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestApplicationsCreateAndFind(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		cv := "cv.pdf"
		app := newApplication(0)
		app.CVFileName = &cv

		require.NoError(t, s.Applications().Create(ctx, app))

		got, err := s.Applications().FindByID(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, app.FirstName, got.FirstName)
		assert.Equal(t, enums.ApplicationStatusPending, got.Status)
		require.NotNil(t, got.CVFileName)
		assert.Equal(t, "cv.pdf", *got.CVFileName)
		assert.True(t, got.CreatedAt.Equal(app.CreatedAt))

		_, err = s.Applications().FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestApplicationsUpdateStatusCompareAndSet(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		app := newApplication(0)
		require.NoError(t, s.Applications().Create(ctx, app))

		later := baseTime.Add(time.Hour)
		require.NoError(t, s.Applications().UpdateStatus(ctx, app.ID, enums.ApplicationStatusPending, enums.ApplicationStatusApprovedByBoard, later))

		err := s.Applications().UpdateStatus(ctx, app.ID, enums.ApplicationStatusPending, enums.ApplicationStatusApprovedByBoard, later)
		assert.ErrorIs(t, err, ErrStatusConflict)

		err = s.Applications().UpdateStatus(ctx, uuid.New(), enums.ApplicationStatusPending, enums.ApplicationStatusApprovedByBoard, later)
		assert.ErrorIs(t, err, ErrNotFound)

		got, err := s.Applications().FindByID(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, enums.ApplicationStatusApprovedByBoard, got.Status)
		assert.True(t, got.UpdatedAt.Equal(later))
		assert.True(t, got.CreatedAt.Equal(app.CreatedAt))
	})
}

func TestApplicationsListNewestFirstWithCursor(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for i := 0; i < 5; i++ {
			require.NoError(t, s.Applications().Create(ctx, newApplication(time.Duration(i)*time.Minute)))
		}

		rows, err := s.Applications().List(ctx, ApplicationFilter{Limit: 2})
		require.NoError(t, err)
		require.Len(t, rows, 3, "list returns one extra row to signal another page")
		assert.True(t, rows[0].CreatedAt.After(rows[1].CreatedAt))

		page, next := pagination.Trim(rows, 2, func(a models.MembershipApplication) pagination.Cursor {
			return pagination.Cursor{CreatedAt: a.CreatedAt, ID: a.ID}
		})
		require.Len(t, page, 2)
		require.NotEmpty(t, next)

		cursor, err := pagination.ParseCursor(next)
		require.NoError(t, err)
		rest, err := s.Applications().List(ctx, ApplicationFilter{Limit: 10, Cursor: cursor})
		require.NoError(t, err)
		require.Len(t, rest, 3)
		assert.True(t, rest[0].CreatedAt.Before(page[1].CreatedAt))

		activated := enums.ApplicationStatusActivated
		none, err := s.Applications().List(ctx, ApplicationFilter{Status: &activated})
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestMembersEmailUniqueCaseInsensitive(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Members().Create(ctx, newMember("K.Amon@Test.ci", 0)))

		err := s.Members().Create(ctx, newMember("k.amon@test.ci ", time.Minute))
		assert.ErrorIs(t, err, ErrDuplicateEmail)

		found, err := s.Members().FindByEmail(ctx, "K.AMON@TEST.CI")
		require.NoError(t, err)
		assert.Equal(t, "k.amon@test.ci", found.Email)

		_, err = s.Members().FindByEmail(ctx, "nobody@test.ci")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMembersRoundTripNestedCollections(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		box := int64(1500000)
		member := newMember("a@test.ci", 0)
		member.Filmography = []models.Film{{Title: "Run", Year: 2019, Month: 5, Role: "Cadreuse", Type: enums.FilmTypeFeature, ImpactScore: 4, BoxOffice: &box}}
		member.Skills = []string{"Steadicam"}
		require.NoError(t, s.Members().Create(ctx, member))

		got, err := s.Members().FindByID(ctx, member.ID)
		require.NoError(t, err)
		require.Len(t, got.Filmography, 1)
		require.NotNil(t, got.Filmography[0].BoxOffice)
		assert.Equal(t, box, *got.Filmography[0].BoxOffice)
		assert.Equal(t, []string{"Steadicam"}, []string(got.Skills))
		assert.Empty(t, got.Gallery)
		require.Len(t, got.PaymentHistory, 1)
		assert.Equal(t, enums.PaymentStatusUnpaid, got.PaymentHistory[0].Status)
	})
}

func TestMembersUpdate(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		member := newMember("a@test.ci", 0)
		require.NoError(t, s.Members().Create(ctx, member))
		require.NoError(t, s.Members().Create(ctx, newMember("b@test.ci", time.Minute)))

		member.Status = enums.MemberStatusSanctioned
		member.TwoFactorEnabled = true
		require.NoError(t, s.Members().Update(ctx, member))

		got, err := s.Members().FindByID(ctx, member.ID)
		require.NoError(t, err)
		assert.Equal(t, enums.MemberStatusSanctioned, got.Status)
		assert.True(t, got.TwoFactorEnabled)

		got.TwoFactorEnabled = false
		require.NoError(t, s.Members().Update(ctx, got))
		again, err := s.Members().FindByID(ctx, member.ID)
		require.NoError(t, err)
		assert.False(t, again.TwoFactorEnabled, "zero values must be written")

		again.Email = "B@test.ci"
		assert.ErrorIs(t, s.Members().Update(ctx, again), ErrDuplicateEmail)

		missing := newMember("c@test.ci", 0)
		assert.ErrorIs(t, s.Members().Update(ctx, missing), ErrNotFound)
	})
}

func TestMembersListFilters(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		active := newMember("a@test.ci", 0)
		sanctioned := newMember("b@test.ci", time.Minute)
		sanctioned.Status = enums.MemberStatusSanctioned
		busy := newMember("c@test.ci", 2*time.Minute)
		busy.Specialty = "Monteuse"
		busy.Availability = enums.AvailabilityUnavailable
		for _, m := range []*models.Member{active, sanctioned, busy} {
			require.NoError(t, s.Members().Create(ctx, m))
		}

		visible, err := s.Members().List(ctx, MemberFilter{Statuses: []enums.MemberStatus{enums.MemberStatusActive}})
		require.NoError(t, err)
		require.Len(t, visible, 2)
		assert.Equal(t, busy.ID, visible[0].ID)

		bySpecialty, err := s.Members().List(ctx, MemberFilter{Specialty: "Monteuse"})
		require.NoError(t, err)
		require.Len(t, bySpecialty, 1)

		available := enums.AvailabilityAvailable
		byAvailability, err := s.Members().List(ctx, MemberFilter{Availability: &available})
		require.NoError(t, err)
		assert.Len(t, byAvailability, 2)
	})
}

func TestWithTxRollsBackOnError(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		app := newApplication(0)
		app.Status = enums.ApplicationStatusInvitationSent
		require.NoError(t, s.Applications().Create(ctx, app))

		boom := errors.New("boom")
		member := newMember("tx@test.ci", 0)
		err := s.WithTx(ctx, func(tx Store) error {
			if err := tx.Applications().UpdateStatus(ctx, app.ID, enums.ApplicationStatusInvitationSent, enums.ApplicationStatusActivated, baseTime); err != nil {
				return err
			}
			if err := tx.Members().Create(ctx, member); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := s.Applications().FindByID(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, enums.ApplicationStatusInvitationSent, got.Status)

		_, err = s.Members().FindByEmail(ctx, "tx@test.ci")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestWithTxCommits(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		member := newMember("commit@test.ci", 0)
		require.NoError(t, s.WithTx(ctx, func(tx Store) error {
			return tx.Members().Create(ctx, member)
		}))

		_, err := s.Members().FindByID(ctx, member.ID)
		require.NoError(t, err)
	})
}

func TestWithTxSerialisesStatusChanges(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		app := newApplication(0)
		require.NoError(t, s.Applications().Create(ctx, app))

		const workers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := s.WithTx(ctx, func(tx Store) error {
					current, err := tx.Applications().FindByID(ctx, app.ID)
					if err != nil {
						return err
					}
					if current.Status != enums.ApplicationStatusPending {
						return ErrStatusConflict
					}
					return tx.Applications().UpdateStatus(ctx, app.ID, enums.ApplicationStatusPending, enums.ApplicationStatusApprovedByBoard, baseTime.Add(time.Duration(i)))
				})
				if err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
					return
				}
				if !errors.Is(err, ErrStatusConflict) {
					t.Errorf("unexpected error: %v", err)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, successes)
	})
}

func TestMemoryCopiesAreIsolated(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	member := newMember("iso@test.ci", 0)
	member.Skills = []string{"Lumière"}
	require.NoError(t, s.Members().Create(ctx, member))

	member.Skills[0] = "changed"
	got, err := s.Members().FindByID(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lumière", got.Skills[0])

	got.Skills[0] = "changed again"
	again, err := s.Members().FindByID(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lumière", again.Skills[0])
}
