package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPErrorFallsBackToDefaultMessage(t *testing.T) {
	e := HTTP(http.StatusBadRequest, "", []byte(`{"title":["This field is required."]}`), nil)
	if e.Message != MsgUnexpected {
		t.Fatalf("message=%q", e.Message)
	}
	if e.Fields["title"] != "This field is required." {
		t.Fatalf("fields=%v", e.Fields)
	}
}

func TestHTTPErrorIgnoresNonJSONBody(t *testing.T) {
	e := HTTP(http.StatusBadGateway, "bad gateway", []byte("<html>"), nil)
	if e.Body != nil {
		t.Fatalf("body should be dropped for non-json payloads")
	}
	if err := e.Decode(&struct{}{}); err == nil {
		t.Fatalf("expected decode error on empty body")
	}
}

func TestFromClassifiesErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"deadline", fmt.Errorf("do: %w", context.DeadlineExceeded), KindTimeout},
		{"plain", errors.New("boom"), KindUnexpected},
		{"wrapped", fmt.Errorf("op: %w", Network(errors.New("refused"))), KindNetwork},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := From(tc.err)
			if got.Kind != tc.want {
				t.Fatalf("kind=%s want=%s", got.Kind, tc.want)
			}
		})
	}
	if From(nil) != nil {
		t.Fatalf("From(nil) should be nil")
	}
}

func TestStatusHelpers(t *testing.T) {
	err := fmt.Errorf("vote: %w", HTTP(http.StatusUnauthorized, "expired", nil, nil))
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized")
	}
	if IsNotFound(err) {
		t.Fatalf("unexpected not found")
	}
	if !IsKind(Timeout(nil), KindTimeout) {
		t.Fatalf("expected timeout kind")
	}
	if Timeout(nil).Error() != MsgTimeout {
		t.Fatalf("timeout message=%q", Timeout(nil).Error())
	}
}

func TestValidationErrorString(t *testing.T) {
	e := Validation(map[string]string{"rating": "must be between 1 and 5", "comment": "required"})
	want := "Validation failed (comment: required; rating: must be between 1 and 5)"
	if e.Error() != want {
		t.Fatalf("got %q", e.Error())
	}
}
