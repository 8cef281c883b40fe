package memory

import (
	"context"

	"github.com/dropDatabas3/minioidc/internal/domain/repository"
	"github.com/dropDatabas3/minioidc/internal/security/password"
)

// UserRepo guarda username -> secreto (plano o PHC argon2id).
type UserRepo struct {
	users map[string]string
}

var _ repository.UserRepository = (*UserRepo)(nil)

func NewUserRepo(users map[string]string) *UserRepo {
	m := make(map[string]string, len(users))
	for k, v := range users {
		m[k] = v
	}
	return &UserRepo{users: m}
}

func (r *UserRepo) Verify(ctx context.Context, username, pass string) bool {
	stored, ok := r.users[username]
	if !ok {
		return false
	}
	return password.Check(pass, stored)
}

func (r *UserRepo) Exists(ctx context.Context, username string) bool {
	_, ok := r.users[username]
	return ok
}
