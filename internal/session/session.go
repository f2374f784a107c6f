// Package session holds the credentials of the signed-in user. A Session is
// created once, handed to the API client, and torn down on logout or on any 401.
package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/platform/logger"
)

var ErrNoToken = errors.New("session: no access token")

// Store persists the two credential strings between runs.
type Store interface {
	Load(ctx context.Context) (domain.Credentials, error)
	Save(ctx context.Context, creds domain.Credentials) error
	Clear(ctx context.Context) error
}

type Session struct {
	log   *logger.Logger
	store Store

	mu    sync.RWMutex
	creds domain.Credentials
	user  *domain.User

	hookMu   sync.Mutex
	hooks    map[int]func()
	nextHook int
}

// New restores persisted credentials from store. A nil store keeps credentials in memory only.
func New(ctx context.Context, store Store, log *logger.Logger) (*Session, error) {
	if log == nil {
		log = logger.Nop()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	s := &Session{
		log:   log.With("component", "Session"),
		store: store,
		hooks: map[int]func(){},
	}
	creds, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.creds = creds
	return s, nil
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.AccessToken != ""
}

func (s *Session) Credentials() domain.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

// User may lag behind IsAuthenticated: it is only known once a profile fetch lands.
func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) SetUser(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u == nil {
		s.user = nil
		return
	}
	cp := *u
	s.user = &cp
}

// Set persists fresh credentials and then adopts them. A failed save leaves
// the session as it was.
func (s *Session) Set(ctx context.Context, creds domain.Credentials) error {
	if err := s.store.Save(ctx, creds); err != nil {
		s.log.Warn("persist credentials failed", "error", err)
		return err
	}
	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()
	return nil
}

// Logout drops credentials and the cached user without firing unauthorized hooks.
func (s *Session) Logout(ctx context.Context) error {
	s.clear()
	return s.store.Clear(ctx)
}

// Expire is called when the API answers 401. Credentials are dropped
// unconditionally, then every OnUnauthorized hook runs.
func (s *Session) Expire(ctx context.Context) {
	s.clear()
	if err := s.store.Clear(ctx); err != nil {
		s.log.Warn("clear credentials failed", "error", err)
	}
	s.log.Info("session expired")

	s.hookMu.Lock()
	ids := make([]int, 0, len(s.hooks))
	for id := range s.hooks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.hooks[id])
	}
	s.hookMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// OnUnauthorized registers fn to run after Expire. The returned func removes it.
func (s *Session) OnUnauthorized(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	s.hookMu.Lock()
	id := s.nextHook
	s.nextHook++
	s.hooks[id] = fn
	s.hookMu.Unlock()
	return func() {
		s.hookMu.Lock()
		delete(s.hooks, id)
		s.hookMu.Unlock()
	}
}

func (s *Session) clear() {
	s.mu.Lock()
	s.creds = domain.Credentials{}
	s.user = nil
	s.mu.Unlock()
}

// Token implements oauth2.TokenSource. Expiry is read from the access token's
// exp claim when it parses as a JWT; the signature is not checked here.
func (s *Session) Token() (*oauth2.Token, error) {
	creds := s.Credentials()
	if creds.AccessToken == "" {
		return nil, ErrNoToken
	}
	tok := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
	}
	if exp, ok := AccessExpiry(creds.AccessToken); ok {
		tok.Expiry = exp
	}
	return tok, nil
}

// Claims is the subset of access-token claims the client cares about.
type Claims struct {
	Subject   string
	UserID    any
	ExpiresAt time.Time
}

func (s *Session) Claims() (Claims, error) {
	creds := s.Credentials()
	if creds.AccessToken == "" {
		return Claims{}, ErrNoToken
	}
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(creds.AccessToken, mc); err != nil {
		return Claims{}, err
	}
	out := Claims{UserID: mc["user_id"]}
	out.Subject, _ = mc.GetSubject()
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

func AccessExpiry(access string) (time.Time, bool) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, mc); err != nil {
		return time.Time{}, false
	}
	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

var _ oauth2.TokenSource = (*Session)(nil)
