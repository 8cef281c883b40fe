// Package bolt persiste bindings externos en un archivo bbolt local. Sirve para
// un único proceso que necesita sobrevivir reinicios sin una base externa.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/dropDatabas3/minioidc/internal/domain/repository"
)

var (
	bucketBindings = []byte("external_bindings")
	bucketSubjects = []byte("local_subjects")
)

// BindingRepo implementa repository.BindingRepository sobre bbolt.
type BindingRepo struct {
	db *bbolt.DB
}

var _ repository.BindingRepository = (*BindingRepo)(nil)

type bindingRecord struct {
	LocalSubject string    `json:"local_subject"`
	CreatedAt    time.Time `json:"created_at"`
}

// Open abre (o crea) la base en path.
func Open(path string) (*BindingRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("bolt: mkdir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketBindings); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketSubjects)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bolt: init buckets: %w", err)
	}
	return &BindingRepo{db: db}, nil
}

// bindingID: provider y subject separados por NUL (no aparece en ninguno de los dos).
func bindingID(provider, externalSubject string) []byte {
	return []byte(provider + "\x00" + externalSubject)
}

func (r *BindingRepo) Get(ctx context.Context, provider, externalSubject string) (*repository.ExternalBinding, error) {
	var out *repository.ExternalBinding
	err := r.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketBindings).Get(bindingID(provider, externalSubject))
		if raw == nil {
			return repository.ErrNotFound
		}
		var rec bindingRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("bolt: decode binding: %w", err)
		}
		out = &repository.ExternalBinding{
			Provider:        provider,
			ExternalSubject: externalSubject,
			LocalSubject:    rec.LocalSubject,
			CreatedAt:       rec.CreatedAt,
		}
		return nil
	})
	return out, err
}

// PutIfAbsent corre en una sola transacción de escritura: bbolt serializa
// writers, así que check-and-put es atómico.
func (r *BindingRepo) PutIfAbsent(ctx context.Context, b repository.ExternalBinding) (*repository.ExternalBinding, bool, error) {
	if b.Provider == "" || b.ExternalSubject == "" || b.LocalSubject == "" {
		return nil, false, repository.ErrInvalidInput
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	stored := b
	created := false
	err := r.db.Update(func(tx *bbolt.Tx) error {
		bk := tx.Bucket(bucketBindings)
		id := bindingID(b.Provider, b.ExternalSubject)
		if raw := bk.Get(id); raw != nil {
			var rec bindingRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return fmt.Errorf("bolt: decode binding: %w", err)
			}
			stored.LocalSubject = rec.LocalSubject
			stored.CreatedAt = rec.CreatedAt
			return nil
		}
		raw, err := json.Marshal(bindingRecord{LocalSubject: b.LocalSubject, CreatedAt: b.CreatedAt})
		if err != nil {
			return err
		}
		if err := bk.Put(id, raw); err != nil {
			return err
		}
		if err := tx.Bucket(bucketSubjects).Put([]byte(b.LocalSubject), id); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &stored, created, nil
}

func (r *BindingRepo) SubjectTaken(ctx context.Context, localSubject string) (bool, error) {
	taken := false
	err := r.db.View(func(tx *bbolt.Tx) error {
		taken = tx.Bucket(bucketSubjects).Get([]byte(localSubject)) != nil
		return nil
	})
	return taken, err
}

func (r *BindingRepo) Close() error {
	return r.db.Close()
}
