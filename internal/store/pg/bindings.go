// Package pg persiste bindings externos en PostgreSQL (pgx). Es el backend
// para varias réplicas detrás de un balanceador.
package pg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/minioidc/internal/domain/repository"
	migrations "github.com/dropDatabas3/minioidc/migrations/postgres"
)

type BindingRepo struct{ pool *pgxpool.Pool }

var _ repository.BindingRepository = (*BindingRepo)(nil)

// Open crea el pool, verifica conexión y aplica las migraciones embebidas.
func Open(ctx context.Context, dsn string) (*BindingRepo, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if pcfg.MaxConns == 0 {
		pcfg.MaxConns = 5
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	r := &BindingRepo{pool: pool}
	if err := r.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

// Pool expone el pool interno.
func (r *BindingRepo) Pool() *pgxpool.Pool { return r.pool }

func (r *BindingRepo) migrate(ctx context.Context) error {
	files, err := fs.Glob(migrations.BindingsFS, migrations.BindingsDir+"/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, f := range files {
		sqlText, err := fs.ReadFile(migrations.BindingsFS, f)
		if err != nil {
			return err
		}
		if _, err := r.pool.Exec(ctx, string(sqlText)); err != nil {
			return fmt.Errorf("pg: migrate %s: %w", f, err)
		}
	}
	return nil
}

func (r *BindingRepo) Get(ctx context.Context, provider, externalSubject string) (*repository.ExternalBinding, error) {
	const q = `
SELECT local_subject, created_at
FROM external_binding
WHERE provider = $1 AND external_subject = $2`
	b := repository.ExternalBinding{Provider: provider, ExternalSubject: externalSubject}
	err := r.pool.QueryRow(ctx, q, provider, externalSubject).Scan(&b.LocalSubject, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// PutIfAbsent: INSERT ... ON CONFLICT DO NOTHING y luego SELECT. La PK
// (provider, external_subject) hace que el primero gane entre réplicas.
func (r *BindingRepo) PutIfAbsent(ctx context.Context, b repository.ExternalBinding) (*repository.ExternalBinding, bool, error) {
	if b.Provider == "" || b.ExternalSubject == "" || b.LocalSubject == "" {
		return nil, false, repository.ErrInvalidInput
	}
	const ins = `
INSERT INTO external_binding (provider, external_subject, local_subject)
VALUES ($1, $2, $3)
ON CONFLICT (provider, external_subject) DO NOTHING`
	tag, err := r.pool.Exec(ctx, ins, b.Provider, b.ExternalSubject, b.LocalSubject)
	if err != nil {
		return nil, false, fmt.Errorf("pg: insert binding: %w", err)
	}
	stored, err := r.Get(ctx, b.Provider, b.ExternalSubject)
	if err != nil {
		return nil, false, err
	}
	return stored, tag.RowsAffected() == 1, nil
}

func (r *BindingRepo) SubjectTaken(ctx context.Context, localSubject string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM external_binding WHERE local_subject = $1)`, localSubject).Scan(&exists)
	return exists, err
}

func (r *BindingRepo) Close() error {
	r.pool.Close()
	return nil
}
