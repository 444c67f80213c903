package auth

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/retechci/retechci-backend/internal/store"
	pkgAuth "github.com/retechci/retechci-backend/pkg/auth"
	"github.com/retechci/retechci-backend/pkg/config"
	"github.com/retechci/retechci-backend/pkg/db/models"
	"github.com/retechci/retechci-backend/pkg/enums"
	pkgerrors "github.com/retechci/retechci-backend/pkg/errors"
	"github.com/retechci/retechci-backend/pkg/logger"
	"github.com/retechci/retechci-backend/pkg/security"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "retechci",
	ExpirationMinutes: 30,
}

func TestServiceLoginMintsTokenBoundToSession(t *testing.T) {
	st := store.NewMemory()
	member := seedMember(t, st, "Mariam.Kone@retechci.ci", "Cinema2024", enums.MemberRoleTreasurer, enums.MemberStatusActive)
	svc, sessions := buildTestService(t, st)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: " MARIAM.KONE@retechci.ci ", Password: "Cinema2024"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.MemberID != member.ID {
		t.Fatalf("expected member id %s, got %s", member.ID, claims.MemberID)
	}
	if claims.Role != enums.MemberRoleTreasurer {
		t.Fatalf("expected treasurer role claim, got %s", claims.Role)
	}
	if got := sessions.active[claims.ID]; got != member.ID {
		t.Fatalf("expected session %s to belong to member, got %s", claims.ID, got)
	}
	if resp.TokenType != "Bearer" || resp.ExpiresIn != 1800 {
		t.Fatalf("unexpected token metadata %q %d", resp.TokenType, resp.ExpiresIn)
	}
	if resp.Member.Email != "mariam.kone@retechci.ci" {
		t.Fatalf("unexpected member email %q", resp.Member.Email)
	}

	stored, err := st.Members().FindByID(context.Background(), member.ID)
	if err != nil {
		t.Fatalf("reload member: %v", err)
	}
	if stored.LastLoginAt == nil || !stored.LastLoginAt.Equal(loginTime) {
		t.Fatalf("expected last login at %v, got %v", loginTime, stored.LastLoginAt)
	}
}

func TestServiceLoginRejectsBadCredentials(t *testing.T) {
	st := store.NewMemory()
	seedMember(t, st, "aya@retechci.ci", "Cinema2024", enums.MemberRoleMember, enums.MemberStatusActive)
	seedMember(t, st, "banned@retechci.ci", "Cinema2024", enums.MemberRoleMember, enums.MemberStatusSanctioned)
	svc, sessions := buildTestService(t, st)

	cases := []LoginRequest{
		{Email: "aya@retechci.ci", Password: "wrong-password1"},
		{Email: "nobody@retechci.ci", Password: "Cinema2024"},
		{Email: "", Password: "Cinema2024"},
		{Email: "aya@retechci.ci", Password: ""},
		{Email: "banned@retechci.ci", Password: "Cinema2024"},
	}
	for _, req := range cases {
		_, err := svc.Login(context.Background(), req)
		if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			t.Fatalf("login %q: expected unauthorized, got %v", req.Email, err)
		}
	}
	if len(sessions.active) != 0 {
		t.Fatalf("expected no sessions, got %d", len(sessions.active))
	}
}

func TestServiceLoginSessionFailure(t *testing.T) {
	st := store.NewMemory()
	seedMember(t, st, "aya@retechci.ci", "Cinema2024", enums.MemberRoleMember, enums.MemberStatusActive)
	svc, sessions := buildTestService(t, st)
	sessions.err = errors.New("redis down")

	_, err := svc.Login(context.Background(), LoginRequest{Email: "aya@retechci.ci", Password: "Cinema2024"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestServiceLogoutRevokesSession(t *testing.T) {
	st := store.NewMemory()
	seedMember(t, st, "aya@retechci.ci", "Cinema2024", enums.MemberRoleMember, enums.MemberStatusActive)
	svc, sessions := buildTestService(t, st)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "aya@retechci.ci", Password: "Cinema2024"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if len(sessions.active) != 1 {
		t.Fatalf("expected one session, got %d", len(sessions.active))
	}

	if err := svc.Logout(context.Background(), resp.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.active) != 0 {
		t.Fatalf("expected session revoked, got %d", len(sessions.active))
	}

	if err := svc.Logout(context.Background(), "not-a-jwt"); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for garbage token, got %v", err)
	}
}

func TestServiceLogoutAcceptsExpiredToken(t *testing.T) {
	st := store.NewMemory()
	svc, sessions := buildTestService(t, st)
	memberID := uuid.New()
	sessions.active["old-session"] = memberID

	token, err := pkgAuth.MintAccessToken(testJWT, time.Now().Add(-2*time.Hour), pkgAuth.AccessTokenPayload{
		MemberID: memberID,
		Role:     enums.MemberRoleMember,
		JTI:      "old-session",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	if err := svc.Logout(context.Background(), token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := sessions.active["old-session"]; ok {
		t.Fatal("expected expired session revoked")
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected error without store")
	}
	if _, err := NewService(ServiceParams{Store: store.NewMemory(), Hasher: security.NewHasher(config.PasswordConfig{})}); err == nil {
		t.Fatal("expected error without session manager")
	}
}

var loginTime = time.Now().UTC().Truncate(time.Second)

func buildTestService(t *testing.T, st store.Store) (Service, *stubSessionManager) {
	t.Helper()
	sessions := &stubSessionManager{active: map[string]uuid.UUID{}}
	svc, err := NewService(ServiceParams{
		Store:          st,
		Hasher:         security.NewHasher(config.PasswordConfig{}),
		SessionManager: sessions,
		JWTConfig:      testJWT,
		Logger:         logger.New(logger.Options{Output: io.Discard}),
		Now:            func() time.Time { return loginTime },
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, sessions
}

func seedMember(t *testing.T, st store.Store, email, password string, role enums.MemberRole, status enums.MemberStatus) models.Member {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	member := models.Member{
		ID:           uuid.New(),
		Name:         "Test Member",
		Specialty:    "Scripte",
		Email:        email,
		Availability: enums.AvailabilityAvailable,
		Role:         role,
		Status:       status,
		PasswordHash: hash,
		CreatedAt:    loginTime.Add(-24 * time.Hour),
		UpdatedAt:    loginTime.Add(-24 * time.Hour),
	}
	if err := st.Members().Create(context.Background(), &member); err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return member
}

type stubSessionManager struct {
	active map[string]uuid.UUID
	err    error
}

func (s *stubSessionManager) Start(ctx context.Context, memberID uuid.UUID) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	id := uuid.NewString()
	s.active[id] = memberID
	return id, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	if s.err != nil {
		return s.err
	}
	delete(s.active, accessID)
	return nil
}
