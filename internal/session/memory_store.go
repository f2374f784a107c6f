package session

import (
	"context"
	"sync"

	"github.com/yungbote/coursemarket/internal/domain"
)

type MemoryStore struct {
	mu    sync.Mutex
	creds domain.Credentials
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load(ctx context.Context) (domain.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds, nil
}

func (m *MemoryStore) Save(ctx context.Context, creds domain.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = creds
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = domain.Credentials{}
	return nil
}
