package envutil

import (
	"testing"
	"time"
)

func TestDurationParsesBothForms(t *testing.T) {
	t.Setenv("CM_TEST_TIMEOUT", "250ms")
	if got := Duration("CM_TEST_TIMEOUT", time.Second); got != 250*time.Millisecond {
		t.Fatalf("got %v", got)
	}
	t.Setenv("CM_TEST_TIMEOUT", "7")
	if got := Duration("CM_TEST_TIMEOUT", time.Second); got != 7*time.Second {
		t.Fatalf("got %v", got)
	}
	t.Setenv("CM_TEST_TIMEOUT", "soon")
	if got := Duration("CM_TEST_TIMEOUT", time.Second); got != time.Second {
		t.Fatalf("got %v", got)
	}
}

func TestBoolAndInt(t *testing.T) {
	t.Setenv("CM_TEST_FLAG", "yes")
	if !Bool("CM_TEST_FLAG", false) {
		t.Fatalf("expected true")
	}
	t.Setenv("CM_TEST_N", "x")
	if Int("CM_TEST_N", 3) != 3 {
		t.Fatalf("expected default")
	}
}

func TestFloat(t *testing.T) {
	t.Setenv("CM_TEST_RATIO", "0.5")
	if Float("CM_TEST_RATIO", 0.1) != 0.5 {
		t.Fatalf("expected 0.5")
	}
	t.Setenv("CM_TEST_RATIO", "half")
	if Float("CM_TEST_RATIO", 0.1) != 0.1 {
		t.Fatalf("expected default")
	}
}
