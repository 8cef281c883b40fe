package social

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/minioidc/internal/providers"
	"github.com/dropDatabas3/minioidc/internal/store/memory"
)

func newBindingSvc() BindingService {
	return NewBindingService(BindingDeps{
		Bindings: memory.NewBindingRepo(),
		Users:    memory.NewUserRepo(map[string]string{"alice": "alice123"}),
	})
}

func TestBinding_FirstSeenWins(t *testing.T) {
	ctx := context.Background()
	s := newBindingSvc()

	sub, err := s.Resolve(ctx, "corp", &providers.UserProfile{ProviderID: "ext-1", Name: "Carol Doe"})
	require.NoError(t, err)
	assert.Equal(t, "carol.doe", sub)

	// el nombre cambió en el IdP: el binding no
	again, err := s.Resolve(ctx, "corp", &providers.UserProfile{ProviderID: "ext-1", Name: "Carol Smith"})
	require.NoError(t, err)
	assert.Equal(t, sub, again)
}

func TestBinding_CollisionsGetSuffix(t *testing.T) {
	ctx := context.Background()
	s := newBindingSvc()

	// choca con el usuario local alice
	sub, err := s.Resolve(ctx, "corp", &providers.UserProfile{ProviderID: "ext-a", Name: "Alice"})
	require.NoError(t, err)
	assert.NotEqual(t, "alice", sub)
	assert.True(t, strings.HasPrefix(sub, "alice-"), sub)

	// mismo nombre, otra identidad externa
	one, err := s.Resolve(ctx, "gh", &providers.UserProfile{ProviderID: "1", Name: "dave"})
	require.NoError(t, err)
	two, err := s.Resolve(ctx, "gh", &providers.UserProfile{ProviderID: "2", Name: "dave"})
	require.NoError(t, err)
	assert.Equal(t, "dave", one)
	assert.NotEqual(t, one, two)
}

func TestBinding_SeedFallbacks(t *testing.T) {
	ctx := context.Background()
	s := newBindingSvc()

	sub, err := s.Resolve(ctx, "corp", &providers.UserProfile{ProviderID: "x", Email: "Erin@corp.test"})
	require.NoError(t, err)
	assert.Equal(t, "erin", sub)

	sub, err = s.Resolve(ctx, "corp", &providers.UserProfile{ProviderID: "y"})
	require.NoError(t, err)
	assert.Equal(t, "corp-user", sub)

	_, err = s.Resolve(ctx, "corp", &providers.UserProfile{})
	assert.ErrorIs(t, err, providers.ErrNoSubject)
}

func TestBinding_ConcurrentFirstLogin(t *testing.T) {
	ctx := context.Background()
	s := newBindingSvc()

	const n = 16
	subs := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub, err := s.Resolve(ctx, "corp", &providers.UserProfile{ProviderID: "ext-42", Name: "Frank"})
			assert.NoError(t, err)
			subs[i] = sub
		}(i)
	}
	wg.Wait()
	for _, sub := range subs {
		assert.Equal(t, "frank", sub)
	}
}

func TestSanitizeSubject(t *testing.T) {
	assert.Equal(t, "jose.maria", sanitizeSubject("  Jose Maria "))
	assert.Equal(t, "octocat", sanitizeSubject("@octocat!"))
	assert.Equal(t, "", sanitizeSubject("---"))
	assert.Len(t, sanitizeSubject(strings.Repeat("a", 80)), maxSubjectLen)
}
