package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/dropDatabas3/minioidc/internal/domain/repository"
)

func TestClientRepo(t *testing.T) {
	ctx := context.Background()
	r := NewClientRepo(repository.Client{ID: "demo-client", Secret: "demo-secret", RedirectURIs: []string{"https://app/cb"}})

	c, err := r.Get(ctx, "demo-client")
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if !c.AllowsRedirect("https://app/cb") || c.AllowsRedirect("https://app/cb/") || c.AllowsRedirect("") {
		t.Fatal("redirect allow-list must be exact")
	}
	if _, err := r.Get(ctx, "nope"); !repository.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !r.Authenticate(ctx, "demo-client", "demo-secret") {
		t.Fatal("valid secret rejected")
	}
	if r.Authenticate(ctx, "demo-client", "wrong") || r.Authenticate(ctx, "nope", "demo-secret") {
		t.Fatal("invalid credentials accepted")
	}
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(map[string]string{"alice": "alice123"})
	if !r.Verify(ctx, "alice", "alice123") {
		t.Fatal("alice should verify")
	}
	if r.Verify(ctx, "alice", "bob123") || r.Verify(ctx, "carol", "") {
		t.Fatal("bad credentials verified")
	}
	if !r.Exists(ctx, "alice") || r.Exists(ctx, "carol") {
		t.Fatal("Exists mismatch")
	}
}

func TestBindingRepo_FirstSeenWins(t *testing.T) {
	ctx := context.Background()
	r := NewBindingRepo()

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, _, err := r.PutIfAbsent(ctx, repository.ExternalBinding{
				Provider: "corp", ExternalSubject: "ext-1", LocalSubject: "cand-" + string(rune('a'+i)),
			})
			if err != nil {
				t.Errorf("PutIfAbsent err: %v", err)
				return
			}
			results[i] = b.LocalSubject
		}(i)
	}
	wg.Wait()
	for _, s := range results[1:] {
		if s != results[0] {
			t.Fatalf("bindings diverged: %v", results)
		}
	}

	got, err := r.Get(ctx, "corp", "ext-1")
	if err != nil || got.LocalSubject != results[0] {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	taken, _ := r.SubjectTaken(ctx, results[0])
	if !taken {
		t.Fatal("stored subject should be reported as taken")
	}
	if _, err := r.Get(ctx, "other", "ext-1"); !repository.IsNotFound(err) {
		t.Fatal("binding must be scoped by provider")
	}
	if _, _, err := r.PutIfAbsent(ctx, repository.ExternalBinding{Provider: "corp"}); err != repository.ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
