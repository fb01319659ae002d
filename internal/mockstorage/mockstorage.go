// Package mockstorage provides a testify-based mock implementation
// of the storage interface. It is used for unit testing HTTP handlers
// by simulating storage behavior, including failures.
package mockstorage

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"

	"github.com/dsavelev/notesapi/internal/models"
	"github.com/dsavelev/notesapi/internal/user"
)

// StorageMock is a testify mock that implements the storage interface
// used by the service layer.
type StorageMock struct {
	mock.Mock
}

// CreateUser mocks inserting a new account.
func (m *StorageMock) CreateUser(
	ctx context.Context,
	email string,
	passwordHash string,
	tx *sql.Tx,
) (*user.User, error) {
	args := m.Called(ctx, email, passwordHash, tx)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

// FindUserByEmail mocks looking an account up by email.
func (m *StorageMock) FindUserByEmail(
	ctx context.Context,
	email string,
	tx *sql.Tx,
) (*user.User, bool, error) {
	args := m.Called(ctx, email, tx)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// GetUsers mocks the accounts listing.
func (m *StorageMock) GetUsers(ctx context.Context) ([]models.UserListItem, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.UserListItem)
	return users, args.Error(1)
}

// GetUserNotes mocks fetching a user's notes.
func (m *StorageMock) GetUserNotes(ctx context.Context, userID int64) ([]models.Note, error) {
	args := m.Called(ctx, userID)
	notes, _ := args.Get(0).([]models.Note)
	return notes, args.Error(1)
}

// CreateNote mocks storing a note.
func (m *StorageMock) CreateNote(
	ctx context.Context,
	userID int64,
	title string,
	content string,
) (*models.Note, error) {
	args := m.Called(ctx, userID, title, content)
	note, _ := args.Get(0).(*models.Note)
	return note, args.Error(1)
}

// UpdateNote mocks the conditional note update.
func (m *StorageMock) UpdateNote(
	ctx context.Context,
	userID int64,
	noteID int64,
	title string,
	content string,
) (*models.Note, bool, error) {
	args := m.Called(ctx, userID, noteID, title, content)
	note, _ := args.Get(0).(*models.Note)
	return note, args.Bool(1), args.Error(2)
}

// DeleteNote mocks the conditional note removal.
func (m *StorageMock) DeleteNote(ctx context.Context, userID int64, noteID int64) error {
	args := m.Called(ctx, userID, noteID)
	return args.Error(0)
}

// GetAllNotes mocks the administrative notes listing.
func (m *StorageMock) GetAllNotes(ctx context.Context) ([]models.Note, error) {
	args := m.Called(ctx)
	notes, _ := args.Get(0).([]models.Note)
	return notes, args.Error(1)
}

// BeginTransaction mocks the beginning of a transaction.
func (m *StorageMock) BeginTransaction() (*sql.Tx, error) {
	args := m.Called()
	tx, _ := args.Get(0).(*sql.Tx)
	return tx, args.Error(1)
}

// CommitTransaction mocks committing a transaction.
func (m *StorageMock) CommitTransaction(tx *sql.Tx) error {
	args := m.Called(tx)
	return args.Error(0)
}

// RollbackTransaction mocks rolling back a transaction.
func (m *StorageMock) RollbackTransaction(tx *sql.Tx) error {
	args := m.Called(tx)
	return args.Error(0)
}

// Ping mocks the storage health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
