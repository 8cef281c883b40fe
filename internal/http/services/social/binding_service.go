package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/minioidc/internal/audit"
	"github.com/dropDatabas3/minioidc/internal/domain/repository"
	"github.com/dropDatabas3/minioidc/internal/metrics"
	"github.com/dropDatabas3/minioidc/internal/observability/logger"
	"github.com/dropDatabas3/minioidc/internal/providers"
	tokens "github.com/dropDatabas3/minioidc/internal/security/token"
	"github.com/dropDatabas3/minioidc/internal/util"
)

// BindingService resuelve (provider, external_subject) a un subject local,
// creando el binding la primera vez.
type BindingService interface {
	Resolve(ctx context.Context, provider string, profile *providers.UserProfile) (string, error)
}

// BindingDeps contains dependencies for BindingService.
type BindingDeps struct {
	Bindings repository.BindingRepository
	Users    repository.UserRepository // para no pisar usuarios locales
}

type bindingService struct {
	bindings repository.BindingRepository
	users    repository.UserRepository
	group    singleflight.Group
	// createMu serializa elegir subject + insertar, para que dos identidades
	// externas distintas no terminen con el mismo subject local.
	createMu sync.Mutex
	now      func() time.Time
}

const maxSubjectLen = 32

// NewBindingService creates a new BindingService.
func NewBindingService(d BindingDeps) BindingService {
	return &bindingService{bindings: d.Bindings, users: d.Users, now: time.Now}
}

func (s *bindingService) Resolve(ctx context.Context, provider string, profile *providers.UserProfile) (string, error) {
	if profile == nil || profile.ProviderID == "" {
		return "", providers.ErrNoSubject
	}
	key := provider + "|" + profile.ProviderID
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.resolve(ctx, provider, profile)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *bindingService) resolve(ctx context.Context, provider string, profile *providers.UserProfile) (string, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.binding"),
		logger.Provider(provider),
		logger.ExternalSubject(profile.ProviderID),
	)

	b, err := s.bindings.Get(ctx, provider, profile.ProviderID)
	if err == nil {
		return b.LocalSubject, nil
	}
	if !repository.IsNotFound(err) {
		return "", fmt.Errorf("get binding: %w", err)
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	subject, err := s.pickSubject(ctx, provider, profile)
	if err != nil {
		return "", err
	}
	stored, created, err := s.bindings.PutIfAbsent(ctx, repository.ExternalBinding{
		Provider:        provider,
		ExternalSubject: profile.ProviderID,
		LocalSubject:    subject,
		CreatedAt:       s.now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("create binding: %w", err)
	}
	if created {
		metrics.BindingsCreated.WithLabelValues(provider).Inc()
		audit.Log(ctx, audit.EventBindingCreated, logger.Provider(provider), logger.Subject(stored.LocalSubject))
		log.Info("external binding created",
			logger.Subject(stored.LocalSubject),
			logger.String("email", util.MaskEmail(profile.Email)),
		)
	}
	return stored.LocalSubject, nil
}

// pickSubject usa el nombre visible (o el local-part del email) como semilla y
// agrega un sufijo aleatorio si ya lo usa un usuario local u otro binding.
func (s *bindingService) pickSubject(ctx context.Context, provider string, profile *providers.UserProfile) (string, error) {
	seed := sanitizeSubject(profile.Name)
	if seed == "" {
		local, _, _ := strings.Cut(profile.Email, "@")
		seed = sanitizeSubject(local)
	}
	if seed == "" {
		seed = sanitizeSubject(provider + "-user")
	}

	candidate := seed
	for attempt := 0; attempt < 8; attempt++ {
		taken, err := s.taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		suffix, err := tokens.GenerateOpaqueToken(4)
		if err != nil {
			return "", err
		}
		candidate = seed + "-" + strings.ToLower(sanitizeSubject(suffix))
	}
	return "", errors.New("could not allocate a local subject")
}

func (s *bindingService) taken(ctx context.Context, subject string) (bool, error) {
	if s.users != nil && s.users.Exists(ctx, subject) {
		return true, nil
	}
	taken, err := s.bindings.SubjectTaken(ctx, subject)
	if err != nil {
		return false, fmt.Errorf("check subject: %w", err)
	}
	return taken, nil
}

// sanitizeSubject deja [a-z0-9._-], espacios a '.', y recorta a maxSubjectLen.
func sanitizeSubject(in string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(in)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('.')
		}
		if b.Len() >= maxSubjectLen {
			break
		}
	}
	return strings.Trim(b.String(), ".-_")
}
