// Package memorystorage provides a volatile storage backend reusing the
// jsondb cache without file persistence. It is the default when neither
// a database DSN nor a storage file is configured, and it backs the tests.
package memorystorage

import (
	"context"

	"github.com/dsavelev/notesapi/internal/db/jsondb"
	"github.com/dsavelev/notesapi/internal/models"
	"github.com/dsavelev/notesapi/internal/user"
)

// MemoryStorage keeps users and notes in memory only.
type MemoryStorage struct {
	*jsondb.JSONDB
}

// New returns an empty in-memory storage.
func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: &jsondb.JSONDB{
			Cache: jsondb.CacheStruct{
				Users:        map[int64]*user.User{},
				UsersByEmail: map[string]int64{},
				NextUserID:   1,
				Notes:        map[int64]*models.Note{},
				NextNoteID:   1,
			},
		},
	}, nil
}

// Close is a no-op: nothing is persisted.
func (theStorage *MemoryStorage) Close() error {
	return nil
}

// Ping always succeeds.
func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
