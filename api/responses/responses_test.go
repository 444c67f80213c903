package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/retechci/retechci-backend/pkg/errors"
	"github.com/retechci/retechci-backend/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessStatus(w, http.StatusCreated, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusCreated {
		t.Fatalf("expected status 201 but got %d", got)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	cases := []struct {
		err     *pkgerrors.Error
		status  int
		details bool
	}{
		{pkgerrors.New(pkgerrors.CodeValidation, "bad input").WithDetails(map[string]any{"fields": map[string]string{"email": "required"}}), http.StatusBadRequest, true},
		{pkgerrors.New(pkgerrors.CodeInvalidTransition, "application is not pending").WithDetails(map[string]any{"current_status": "approved"}), http.StatusConflict, true},
		{pkgerrors.New(pkgerrors.CodeDuplicateMember, "a member with this email already exists"), http.StatusConflict, false},
		{pkgerrors.New(pkgerrors.CodeForbidden, "role may not approve").WithDetails(map[string]any{"capability": "approve_application"}), http.StatusForbidden, false},
		{pkgerrors.New(pkgerrors.CodeNotFound, "application not found"), http.StatusNotFound, false},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		WriteError(context.Background(), nil, w, tc.err)

		if got := w.Code; got != tc.status {
			t.Fatalf("%s: expected status %d but got %d", tc.err.Code(), tc.status, got)
		}
		var body types.ErrorEnvelope
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode error envelope: %v", err)
		}
		if body.Error.Code != string(tc.err.Code()) {
			t.Fatalf("unexpected code %s", body.Error.Code)
		}
		if body.Error.Message != tc.err.Message() {
			t.Fatalf("expected client message %q, got %q", tc.err.Message(), body.Error.Message)
		}
		if tc.details && body.Error.Details == nil {
			t.Fatalf("%s: expected details in public payload", tc.err.Code())
		}
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Message == "boom" {
		t.Fatalf("internal error text must not leak")
	}
	if body.Error.Details != nil {
		t.Fatalf("details should be omitted for internal errors")
	}
}
