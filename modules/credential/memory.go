package credential

import (
	"context"
	"errors"
	"sync"
)

// ErrNilCredential is returned when attempting to save a nil credential.
var ErrNilCredential = errors.New("credential cannot be nil")

// MemoryBackend keeps the credential in process memory.
type MemoryBackend struct {
	mu   sync.RWMutex
	cred *Credential
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Load(ctx context.Context) (*Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.cred == nil {
		return nil, ErrNotFound
	}
	return copyOf(m.cred), nil
}

func (m *MemoryBackend) Save(ctx context.Context, cred *Credential) error {
	if cred == nil {
		return ErrNilCredential
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.cred = copyOf(cred)
	return nil
}

func (m *MemoryBackend) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cred = nil
	return nil
}
