package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("toggle device: %w", TelemetryFailure("update rejected", errors.New("status 500")))

	if got := KindOf(err); got != KindTelemetryFailure {
		t.Fatalf("KindOf() = %q, want %q", got, KindTelemetryFailure)
	}
	if !errors.Is(err, ErrTelemetryFailure) {
		t.Error("errors.Is should match the kind sentinel")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("errors.Is should not match a different kind")
	}
}

func TestKindOf_Unclassified(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Fatalf("KindOf() = %q, want Internal", got)
	}
}

func TestToResponse(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   Kind
		msg    string
	}{
		{InvalidCredentials(), http.StatusUnauthorized, KindInvalidCredentials, "invalid credentials"},
		{SignInRejected("no account"), http.StatusUnauthorized, KindSignInRejected, "no account"},
		{Forbidden("admin only"), http.StatusForbidden, KindForbidden, "admin only"},
		{NotFound("API configuration not found"), http.StatusNotFound, KindNotFound, "API configuration not found"},
		{TelemetryFailure("update failed", nil), http.StatusBadGateway, KindTelemetryFailure, "update failed"},
		{Validation("bad field"), http.StatusBadRequest, KindValidationFailure, "bad field"},
		{Conflict("email taken"), http.StatusConflict, KindConflict, "email taken"},
		{Internal("db exploded", errors.New("secret detail")), http.StatusInternalServerError, KindInternal, "Internal Server Error"},
		{errors.New("raw"), http.StatusInternalServerError, KindInternal, "internal server error"},
	}

	for _, tc := range cases {
		status, body := ToResponse(tc.err)
		if status != tc.status || body.Kind != tc.kind || body.Error != tc.msg {
			t.Errorf("ToResponse(%v) = %d %+v, want %d %s %q", tc.err, status, body, tc.status, tc.kind, tc.msg)
		}
	}
}
