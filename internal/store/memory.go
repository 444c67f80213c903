package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/retechci/retechci-backend/pkg/db/models"
	"github.com/retechci/retechci-backend/pkg/enums"
	"github.com/retechci/retechci-backend/pkg/pagination"
)

// Memory is a map-backed Store. One mutex serialises every operation and
// transaction; a failed transaction restores the state it started from.
type Memory struct {
	mu    sync.Mutex
	state *memoryState
}

type memoryState struct {
	applications map[uuid.UUID]models.MembershipApplication
	members      map[uuid.UUID]models.Member
}

func NewMemory() *Memory {
	return &Memory{state: &memoryState{
		applications: map[uuid.UUID]models.MembershipApplication{},
		members:      map[uuid.UUID]models.Member{},
	}}
}

func (m *Memory) Applications() ApplicationRepository {
	return memoryApplications{state: m.state, lock: m.lock}
}

func (m *Memory) Members() MemberRepository {
	return memoryMembers{state: m.state, lock: m.lock}
}

func (m *Memory) WithTx(ctx context.Context, fn func(Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(memoryTx{state: m.state}); err != nil {
		*m.state = *snapshot
		return err
	}
	return nil
}

func (m *Memory) lock() func() {
	m.mu.Lock()
	return m.mu.Unlock
}

// memoryTx is the view handed to WithTx callbacks; the lock is already held.
type memoryTx struct {
	state *memoryState
}

func (tx memoryTx) Applications() ApplicationRepository {
	return memoryApplications{state: tx.state, lock: noLock}
}

func (tx memoryTx) Members() MemberRepository {
	return memoryMembers{state: tx.state, lock: noLock}
}

func (tx memoryTx) WithTx(_ context.Context, fn func(Store) error) error {
	return fn(tx)
}

func noLock() func() { return func() {} }

func (s *memoryState) clone() *memoryState {
	out := &memoryState{
		applications: make(map[uuid.UUID]models.MembershipApplication, len(s.applications)),
		members:      make(map[uuid.UUID]models.Member, len(s.members)),
	}
	for id, app := range s.applications {
		out.applications[id] = app
	}
	for id, member := range s.members {
		out.members[id] = member.Clone()
	}
	return out
}

type memoryApplications struct {
	state *memoryState
	lock  func() func()
}

func (r memoryApplications) Create(ctx context.Context, app *models.MembershipApplication) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.lock()()

	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	r.state.applications[app.ID] = *app
	return nil
}

func (r memoryApplications) FindByID(ctx context.Context, id uuid.UUID) (*models.MembershipApplication, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.lock()()

	app, ok := r.state.applications[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &app, nil
}

func (r memoryApplications) List(ctx context.Context, filter ApplicationFilter) ([]models.MembershipApplication, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.lock()()

	rows := make([]models.MembershipApplication, 0, len(r.state.applications))
	for _, app := range r.state.applications {
		if filter.Status != nil && app.Status != *filter.Status {
			continue
		}
		if filter.Cursor != nil && !filter.Cursor.Precedes(app.CreatedAt, app.ID) {
			continue
		}
		rows = append(rows, app)
	}
	sort.Slice(rows, func(i, j int) bool {
		return newestFirst(rows[i].CreatedAt, rows[i].ID, rows[j].CreatedAt, rows[j].ID)
	})
	return truncate(rows, filter.Limit), nil
}

func (r memoryApplications) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.ApplicationStatus, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.lock()()

	app, ok := r.state.applications[id]
	if !ok {
		return ErrNotFound
	}
	if app.Status != from {
		return ErrStatusConflict
	}
	app.Status = to
	app.UpdatedAt = at.UTC()
	r.state.applications[id] = app
	return nil
}

type memoryMembers struct {
	state *memoryState
	lock  func() func()
}

func (r memoryMembers) Create(ctx context.Context, member *models.Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.lock()()

	member.Email = NormalizeEmail(member.Email)
	if r.emailTaken(member.Email, member.ID) {
		return ErrDuplicateEmail
	}
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	r.state.members[member.ID] = member.Clone()
	return nil
}

func (r memoryMembers) FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.lock()()

	member, ok := r.state.members[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := member.Clone()
	return &out, nil
}

func (r memoryMembers) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.lock()()

	email = NormalizeEmail(email)
	for _, member := range r.state.members {
		if member.Email == email {
			out := member.Clone()
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r memoryMembers) List(ctx context.Context, filter MemberFilter) ([]models.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.lock()()

	rows := make([]models.Member, 0, len(r.state.members))
	for _, member := range r.state.members {
		if !hasStatus(filter.Statuses, member.Status) {
			continue
		}
		if filter.Specialty != "" && member.Specialty != filter.Specialty {
			continue
		}
		if filter.Availability != nil && member.Availability != *filter.Availability {
			continue
		}
		if filter.Cursor != nil && !filter.Cursor.Precedes(member.CreatedAt, member.ID) {
			continue
		}
		rows = append(rows, member.Clone())
	}
	sort.Slice(rows, func(i, j int) bool {
		return newestFirst(rows[i].CreatedAt, rows[i].ID, rows[j].CreatedAt, rows[j].ID)
	})
	return truncate(rows, filter.Limit), nil
}

func (r memoryMembers) Update(ctx context.Context, member *models.Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.lock()()

	if _, ok := r.state.members[member.ID]; !ok {
		return ErrNotFound
	}
	member.Email = NormalizeEmail(member.Email)
	if r.emailTaken(member.Email, member.ID) {
		return ErrDuplicateEmail
	}
	r.state.members[member.ID] = member.Clone()
	return nil
}

func (r memoryMembers) emailTaken(email string, self uuid.UUID) bool {
	for id, existing := range r.state.members {
		if id != self && existing.Email == email {
			return true
		}
	}
	return false
}

func newestFirst(aAt time.Time, aID uuid.UUID, bAt time.Time, bID uuid.UUID) bool {
	if aAt.Equal(bAt) {
		return aID.String() > bID.String()
	}
	return aAt.After(bAt)
}

func truncate[T any](rows []T, limit int) []T {
	if n := pagination.LimitWithBuffer(limit); len(rows) > n {
		return rows[:n]
	}
	return rows
}
