// Package app wires configuration, logging, credential storage, the API
// client and the state store into one object the CLI drives.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/yungbote/coursemarket/internal/api"
	"github.com/yungbote/coursemarket/internal/api/client"
	"github.com/yungbote/coursemarket/internal/config"
	"github.com/yungbote/coursemarket/internal/observability"
	"github.com/yungbote/coursemarket/internal/platform/logger"
	"github.com/yungbote/coursemarket/internal/session"
	"github.com/yungbote/coursemarket/internal/state"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

type App struct {
	Log     *logger.Logger
	Cfg     *config.Config
	Session *session.Session
	API     *api.API
	Store   *state.Store

	closers  []io.Closer
	shutdown func(context.Context) error
}

// New loads configuration from the environment and builds the App.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := NewWithConfig(ctx, cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func NewWithConfig(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	if log == nil {
		log = logger.Nop()
	}
	a := &App{Log: log, Cfg: cfg}

	a.shutdown = observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: "coursemarket",
		Environment: cfg.Env,
		Version:     Version,
		Endpoint:    cfg.Otel.Endpoint,
		Insecure:    cfg.Otel.Insecure,
		Headers:     observability.ParseHeaders(cfg.Otel.Headers),
		SampleRatio: cfg.Otel.SampleRatio,
	})

	creds, err := a.openCredentialStore(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	sess, err := session.New(ctx, creds, log)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("restore session: %w", err)
	}
	a.Session = sess
	if w, ok := creds.(clearWatcher); ok {
		if err := w.WatchCleared(ctx, func() {
			if sess.IsAuthenticated() {
				log.Info("credentials cleared by another process")
				sess.Expire(context.WithoutCancel(ctx))
			}
		}); err != nil {
			log.Warn("credential watch unavailable", "error", err)
		}
	}

	c, err := client.New(client.Options{
		BaseURL:     cfg.API.BaseURL,
		Timeout:     cfg.API.Timeout.Duration,
		Session:     sess,
		Logger:      log,
		UserAgent:   cfg.API.UserAgent,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("api client: %w", err)
	}
	a.API = api.New(c)

	uploader, err := a.newUploader(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("image host: %w", err)
	}
	verifier, err := a.newVerifier()
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("payment verifier: %w", err)
	}

	a.Store = state.New(a.API, sess, state.Options{
		Logger:         log,
		Uploader:       uploader,
		Verifier:       verifier,
		SearchDebounce: cfg.SearchDebounce.Duration,
	})
	log.Debug("app wired",
		"api", cfg.API.BaseURL,
		"credential_store", cfg.Credentials.Store,
		"image_host", cfg.ImageHost.Provider,
	)
	return a, nil
}

type clearWatcher interface {
	WatchCleared(ctx context.Context, onCleared func()) error
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.Log.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
	if a.shutdown != nil {
		if err := a.shutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		a.shutdown = nil
	}
	a.Log.Sync()
}
