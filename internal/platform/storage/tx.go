package storage

import (
	"context"

	"gorm.io/gorm"

	"quill-server-go/internal/platform/errors"
)

// WithTx runs fn inside a database transaction. The transaction commits when
// fn returns nil and rolls back on error or panic; the underlying resource is
// released on every exit path.
func WithTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return errors.New(errors.KindStorage, "with_tx", "nil database handle")
	}
	err := db.WithContext(ctx).Transaction(fn)
	if err != nil {
		return errors.Wrap(errors.KindStorage, "with_tx", "transaction failed", err)
	}
	return nil
}
