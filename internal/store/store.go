// Package store is the document store: every durable record is read and
// written through here. Job order writes are routed through a single method
// that fires the cascade hook, so no code path can mutate a job order without
// recalculating the manifests that contain it.
package store

import (
	"context"
	"errors"

	"github.com/kargoline/tmsgo/internal/database"
	"github.com/kargoline/tmsgo/internal/errs"
	"gorm.io/gorm"
)

// JobOrderHook is invoked after any committed job order mutation. The cascade
// service registers itself here at startup.
type JobOrderHook func(ctx context.Context, jobOrderDoc string) error

// Store provides repository access to all documents
type Store struct {
	db   *database.DB
	hook JobOrderHook
}

// New creates a store around an open database connection
func New(db *database.DB) *Store {
	return &Store{db: db}
}

// SetJobOrderHook registers the cascade trigger. Must be called during wiring,
// before any job order write.
func (s *Store) SetJobOrderHook(h JobOrderHook) {
	s.hook = h
}

// DB exposes the underlying connection for read-path queries and for the
// recalculation engine's aggregate write.
func (s *Store) DB() *gorm.DB {
	return s.db.DB
}

// Transaction runs fn inside a single database transaction. Any error rolls
// back every write made by fn.
func (s *Store) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.DB.WithContext(ctx).Transaction(fn)
}

// translate maps gorm errors onto the shared error kinds
func translate(kind, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFound(kind, id)
	}
	return errs.Persistence("read "+kind, err)
}
