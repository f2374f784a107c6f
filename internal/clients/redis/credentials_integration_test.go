package redis

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/platform/logger"
)

func TestCredentialStoreIntegrationAgainstLocalRedis(t *testing.T) {
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("CM_RUN_REDIS_INTEGRATION")), "true") {
		t.Skip("set CM_RUN_REDIS_INTEGRATION=true to run redis integration tests")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		addr = "localhost:6379"
	}

	prefix := "cm_it_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	store, err := NewCredentialStore(logger.Nop(), Options{Addr: addr, Prefix: prefix, Profile: "alice"})
	if err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cleared := make(chan struct{}, 1)
	if err := store.WatchCleared(ctx, func() { cleared <- struct{}{} }); err != nil {
		t.Fatalf("WatchCleared: %v", err)
	}

	want := domain.Credentials{AccessToken: "acc", RefreshToken: "ref"}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	select {
	case <-cleared:
	case <-ctx.Done():
		t.Fatalf("cleared event not delivered")
	}
	if got, _ := store.Load(ctx); !got.Empty() {
		t.Fatalf("credentials survived clear: %+v", got)
	}
}
