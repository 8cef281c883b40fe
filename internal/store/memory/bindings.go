package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/minioidc/internal/domain/repository"
)

type bindingKey struct{ provider, sub string }

// BindingRepo guarda bindings externos en memoria. Se pierden al reiniciar.
type BindingRepo struct {
	mu       sync.RWMutex
	bindings map[bindingKey]repository.ExternalBinding
	subjects map[string]struct{}
}

var _ repository.BindingRepository = (*BindingRepo)(nil)

func NewBindingRepo() *BindingRepo {
	return &BindingRepo{
		bindings: make(map[bindingKey]repository.ExternalBinding),
		subjects: make(map[string]struct{}),
	}
}

func (r *BindingRepo) Get(ctx context.Context, provider, externalSubject string) (*repository.ExternalBinding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[bindingKey{provider, externalSubject}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (r *BindingRepo) PutIfAbsent(ctx context.Context, b repository.ExternalBinding) (*repository.ExternalBinding, bool, error) {
	if b.Provider == "" || b.ExternalSubject == "" || b.LocalSubject == "" {
		return nil, false, repository.ErrInvalidInput
	}
	k := bindingKey{b.Provider, b.ExternalSubject}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.bindings[k]; ok {
		return &existing, false, nil
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	r.bindings[k] = b
	r.subjects[b.LocalSubject] = struct{}{}
	return &b, true, nil
}

func (r *BindingRepo) SubjectTaken(ctx context.Context, localSubject string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.subjects[localSubject]
	return ok, nil
}

func (r *BindingRepo) Close() error { return nil }
