package middleware

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/retechci/retechci-backend/internal/access"
	pkgerrors "github.com/retechci/retechci-backend/pkg/errors"
)

type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = fmt.Sprint(value)
	return nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = fmt.Sprint(value)
	return true, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

const approvePattern = "/api/admin/v1/applications/{applicationId}/approve"

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	ctx = WithActor(ctx, access.Actor{MemberID: uuid.MustParse("9f1d8c52-7d7e-4a55-9a3c-0d5a4f1e2b10")})
	return req.WithContext(ctx)
}

func approveRequest(key, body string) *http.Request {
	req := requestWithPattern(http.MethodPost, "/api/admin/v1/applications/42/approve", approvePattern, strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req
}

func TestRouteTTLSelection(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		pattern string
		want    time.Duration
		ok      bool
	}{
		{"approve", http.MethodPost, approvePattern, idempotencyTTL, true},
		{"activate", http.MethodPost, "/api/admin/v1/applications/{applicationId}/activate", activationTTL, true},
		{"special member", http.MethodPost, "/api/admin/v1/members", activationTTL, true},
		{"sanction", http.MethodPut, "/api/admin/v1/members/{memberId}/sanction", idempotencyTTL, true},
		{"record transaction", http.MethodPost, "/api/admin/v1/transactions", idempotencyTTL, true},
		{"wrong method", http.MethodGet, "/api/admin/v1/transactions", 0, false},
		{"login", http.MethodPost, "/api/v1/auth/login", 0, false},
	}

	for _, tt := range tests {
		rule, ok := matchRule(tt.method, tt.pattern)
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%v got %v", tt.name, tt.ok, ok)
		}
		if ok && rule.ttl != tt.want {
			t.Fatalf("%s: expected ttl=%v got %v", tt.name, tt.want, rule.ttl)
		}
	}
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	store := newFakeStore()
	var calls int
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), approveRequest("", `{}`))
	handler.ServeHTTP(httptest.NewRecorder(), approveRequest("", `{}`))

	if calls != 2 {
		t.Fatalf("expected both requests to reach the handler, got %d", calls)
	}
	if len(store.data) != 0 {
		t.Fatalf("expected nothing stored, got %v", store.data)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	var calls int
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{"status":"approved_by_board"}}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, approveRequest("abc", `{}`))
	if first.Code != http.StatusOK {
		t.Fatalf("expected first response 200 got %d", first.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, approveRequest("abc", `{}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected replay status 200 got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected content-type header preserved")
	}
	if rec.Header().Get(replayedHeader) != "true" {
		t.Fatalf("expected replay marker header")
	}
	if strings.TrimSpace(rec.Body.String()) != `{"data":{"status":"approved_by_board"}}` {
		t.Fatalf("expected stored body got %s", rec.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}
}

func TestIdempotencyDetectsBodyChange(t *testing.T) {
	store := newFakeStore()
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), approveRequest("xyz", `{"note":"a"}`))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, approveRequest("xyz", `{"note":"b"}`))
	assertErrorCode(t, rec, http.StatusConflict, pkgerrors.CodeIdempotency)
}

func TestIdempotencyInFlightKeyConflicts(t *testing.T) {
	store := newFakeStore()
	req := approveRequest("busy", `{}`)
	key := store.IdempotencyKey(buildScope(req), "busy")
	store.data[key] = inFlightMarker

	called := false
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if called {
		t.Fatal("handler should not run while the key is reserved")
	}
	assertErrorCode(t, rec, http.StatusConflict, pkgerrors.CodeIdempotency)
}

func TestIdempotencyReleasesKeyOnServerError(t *testing.T) {
	store := newFakeStore()
	var calls int
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), approveRequest("retry", `{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, approveRequest("retry", `{}`))

	if calls != 2 {
		t.Fatalf("expected retry to reach the handler, got %d calls", calls)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on retry got %d", rec.Code)
	}
}

func TestIdempotencyNeverPersistsTemporaryPassword(t *testing.T) {
	const pattern = "/api/admin/v1/applications/{applicationId}/activate"
	const body = `{"data":{"member":{"email":"koffi@example.com"},"temporary_password":"S3cretTemp!"}}`
	store := newFakeStore()
	var calls int
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	}))
	activate := func() *http.Request {
		req := requestWithPattern(http.MethodPost, "/api/admin/v1/applications/42/activate", pattern, strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "activate-once")
		return req
	}

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, activate())
	if !strings.Contains(first.Body.String(), "S3cretTemp!") {
		t.Fatalf("expected the original response to carry the password, got %s", first.Body.String())
	}

	for key, stored := range store.data {
		var record idempotencyRecord
		if err := json.Unmarshal([]byte(stored), &record); err != nil {
			t.Fatalf("decode record %s: %v", key, err)
		}
		decoded, err := base64.StdEncoding.DecodeString(record.Body)
		if err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if strings.Contains(string(decoded), "S3cretTemp!") || strings.Contains(string(decoded), "temporary_password") {
			t.Fatalf("stored record leaks the temporary password: %s", decoded)
		}
	}

	replayed := httptest.NewRecorder()
	handler.ServeHTTP(replayed, activate())
	if calls != 1 {
		t.Fatalf("expected replay without running the handler, got %d calls", calls)
	}
	if replayed.Header().Get(replayedHeader) != "true" {
		t.Fatal("expected replay marker header")
	}
	if strings.Contains(replayed.Body.String(), "S3cretTemp!") {
		t.Fatalf("replay must not return the password: %s", replayed.Body.String())
	}
	if !strings.Contains(replayed.Body.String(), "koffi@example.com") {
		t.Fatalf("replay lost the member payload: %s", replayed.Body.String())
	}
}

func TestRedactBodyDropsNestedFields(t *testing.T) {
	got := string(redactBody([]byte(`{"data":[{"temporary_password":"x","id":1}]}`), credentialFields))
	if got != `{"data":[{"id":1}]}` {
		t.Fatalf("unexpected redacted body %s", got)
	}
	if out := redactBody([]byte("not json"), credentialFields); out != nil {
		t.Fatalf("expected unparseable body to be dropped, got %q", out)
	}
	if out := string(redactBody([]byte(`{"a":1}`), nil)); out != `{"a":1}` {
		t.Fatalf("expected body untouched without fields, got %s", out)
	}
}

func TestIdempotencyKeysAreScopedPerMember(t *testing.T) {
	first := approveRequest("same", `{}`)
	second := approveRequest("same", `{}`)
	second = second.WithContext(WithActor(second.Context(), access.Actor{MemberID: uuid.New()}))

	if buildScope(first) == buildScope(second) {
		t.Fatal("expected different members to get different scopes")
	}
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code pkgerrors.Code) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d got %d (%s)", status, rec.Code, rec.Body.String())
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if envelope.Error.Code != string(code) {
		t.Fatalf("expected code %s got %s", code, envelope.Error.Code)
	}
}
