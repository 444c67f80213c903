package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/retechci/retechci-backend/api/middleware"
	"github.com/retechci/retechci-backend/internal/access"
	"github.com/retechci/retechci-backend/internal/applications"
	"github.com/retechci/retechci-backend/internal/finance"
	"github.com/retechci/retechci-backend/internal/members"
	"github.com/retechci/retechci-backend/internal/messages"
	"github.com/retechci/retechci-backend/internal/salaries"
	"github.com/retechci/retechci-backend/internal/store"
	"github.com/retechci/retechci-backend/pkg/config"
	"github.com/retechci/retechci-backend/pkg/db/dbtest"
	"github.com/retechci/retechci-backend/pkg/enums"
	"github.com/retechci/retechci-backend/pkg/logger"
)

var (
	president = access.Actor{MemberID: uuid.New(), Role: enums.MemberRoleBoardPresident}
	director  = access.Actor{MemberID: uuid.New(), Role: enums.MemberRoleExecutiveDirector}
	treasurer = access.Actor{MemberID: uuid.New(), Role: enums.MemberRoleTreasurer}
	plain     = access.Actor{MemberID: uuid.New(), Role: enums.MemberRoleMember}
)

type prefixHasher struct{}

func (prefixHasher) Hash(password string) (string, error) { return "hashed_" + password, nil }

func (prefixHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "hashed_"+password, nil
}

type testEnv struct {
	store        store.Store
	applications applications.Service
	members      members.Service
	salaries     salaries.Service
	finance      finance.Service
	messages     messages.Service
	logg         *logger.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	st := store.NewGorm(db)
	membership := config.MembershipConfig{AnnualFee: 25000, Currency: "XOF", AvatarBaseURL: "https://picsum.photos/seed"}
	now := func() time.Time { return time.Now().UTC() }

	salarySvc, err := salaries.NewService(salaries.NewRepository(db), nil, logg)
	if err != nil {
		t.Fatalf("salaries service: %v", err)
	}
	appSvc, err := applications.NewService(applications.ServiceParams{
		Store:       st,
		Hasher:      prefixHasher{},
		Logger:      logg,
		Membership:  membership,
		NewPassword: func() (string, error) { return "TempPass1234", nil },
	})
	if err != nil {
		t.Fatalf("applications service: %v", err)
	}
	memberSvc, err := members.NewService(members.ServiceParams{
		Store:       st,
		Salaries:    salarySvc,
		Hasher:      prefixHasher{},
		Logger:      logg,
		Membership:  membership,
		NewPassword: func() (string, error) { return "TempPass1234", nil },
	})
	if err != nil {
		t.Fatalf("members service: %v", err)
	}
	financeSvc, err := finance.NewService(finance.NewRepository(db), logg, membership.Currency, now)
	if err != nil {
		t.Fatalf("finance service: %v", err)
	}
	messageSvc, err := messages.NewService(messages.NewRepository(db), logg, now)
	if err != nil {
		t.Fatalf("messages service: %v", err)
	}

	return &testEnv{
		store:        st,
		applications: appSvc,
		members:      memberSvc,
		salaries:     salarySvc,
		finance:      financeSvc,
		messages:     messageSvc,
		logg:         logg,
	}
}

// call routes one request through a router that only knows pattern.
func call(t *testing.T, method, pattern, path string, handler http.HandlerFunc, actor *access.Actor, body any) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	if actor != nil {
		a := *actor
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithActor(req.Context(), a)))
			})
		})
	}
	r.Method(method, pattern, handler)

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

// decodeData unwraps the success envelope into dest.
func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope %q: %v", resp.Body.String(), err)
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data %q: %v", envelope.Data, err)
	}
}

type apiError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func expectError(t *testing.T, resp *httptest.ResponseRecorder, status int, code string) apiError {
	t.Helper()
	if resp.Code != status {
		t.Fatalf("expected status %d got %d: %s", status, resp.Code, resp.Body.String())
	}
	var envelope struct {
		Error apiError `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != code {
		t.Fatalf("expected code %s got %s (%s)", code, envelope.Error.Code, envelope.Error.Message)
	}
	return envelope.Error
}

func expectStatus(t *testing.T, resp *httptest.ResponseRecorder, status int) {
	t.Helper()
	if resp.Code != status {
		t.Fatalf("expected status %d got %d: %s", status, resp.Code, resp.Body.String())
	}
}

func containsField(body []byte, name string) bool {
	return bytes.Contains(body, []byte(`"`+name+`"`))
}

func itoa(v int) string { return strconv.Itoa(v) }
