// Package store persists the full ordered set of key records. Every backend
// loads and saves the whole set at once and offers an atomic read-modify-write
// so concurrent mutations inside one process never lose updates.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/keystore/models"
)

var ErrUnknownDriver = errors.New("unknown store driver")

// UpdateFunc receives the current records and returns the next set. When
// changed is false nothing is written.
type UpdateFunc func(records []models.KeyRecord) (next []models.KeyRecord, changed bool, err error)

type Store interface {
	Load(ctx context.Context) ([]models.KeyRecord, error)
	Save(ctx context.Context, records []models.KeyRecord) error
	Update(ctx context.Context, fn UpdateFunc) error
	Close() error
}

// Open builds the backend named by driver: "file", "sqlite" or "memory".
func Open(driver, dataFile, databaseURL string) (Store, error) {
	switch driver {
	case "file", "":
		return NewFileStore(dataFile), nil
	case "sqlite":
		return NewSQLiteStore(databaseURL)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
