package stripeintent

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/platform/apierr"
)

func TestIntentStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path != "/v1/payment_intents/pi_9_2":
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":{"type":"invalid_request_error","message":"No such payment_intent"}}`)
		case r.URL.Query().Get("client_secret") != "pi_9_2_secret_test":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"type":"invalid_request_error","message":"client secret mismatch"}}`)
		default:
			_, _ = io.WriteString(w, `{"id":"pi_9_2","object":"payment_intent","status":"processing"}`)
		}
	}))
	defer srv.Close()

	v, err := New(Options{Key: "pk_test_123", URL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	st, err := v.IntentStatus(ctx, "pi_9_2", "pi_9_2_secret_test")
	if err != nil {
		t.Fatalf("IntentStatus: %v", err)
	}
	if st != domain.IntentProcessing {
		t.Fatalf("status=%q", st)
	}

	_, err = v.IntentStatus(ctx, "pi_9_2", "wrong")
	if e, ok := apierr.As(err); !ok || e.Status != http.StatusBadRequest || e.Message != "client secret mismatch" {
		t.Fatalf("err=%v", err)
	}
	if _, err := v.IntentStatus(ctx, "pi_missing", "s"); !apierr.IsNotFound(err) {
		t.Fatalf("err=%v want not found", err)
	}
	if _, err := v.IntentStatus(ctx, "", ""); !apierr.IsKind(err, apierr.KindValidation) {
		t.Fatalf("err=%v want validation", err)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error without key")
	}
}
