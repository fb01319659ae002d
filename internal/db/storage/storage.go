// Package storage declares the persistence contract shared by the
// PostgreSQL, JSON file and in-memory backends.
package storage

import (
	"context"
	"database/sql"

	"github.com/dsavelev/notesapi/internal/models"
	"github.com/dsavelev/notesapi/internal/user"
)

// Storage is the full persistence surface of the notes service.
// Methods accepting a transaction run inside it when one is passed and
// against the pooled connection otherwise; the file and memory backends
// ignore the transaction argument.
type Storage interface {
	CreateUser(
		ctx context.Context,
		email string,
		passwordHash string,
		transaction *sql.Tx,
	) (*user.User, error)

	FindUserByEmail(
		ctx context.Context,
		email string,
		transaction *sql.Tx,
	) (*user.User, bool, error)

	GetUsers(ctx context.Context) ([]models.UserListItem, error)

	GetUserNotes(ctx context.Context, userID int64) ([]models.Note, error)

	CreateNote(
		ctx context.Context,
		userID int64,
		title string,
		content string,
	) (*models.Note, error)

	UpdateNote(
		ctx context.Context,
		userID int64,
		noteID int64,
		title string,
		content string,
	) (*models.Note, bool, error)

	DeleteNote(ctx context.Context, userID int64, noteID int64) error

	GetAllNotes(ctx context.Context) ([]models.Note, error)

	BeginTransaction() (*sql.Tx, error)

	CommitTransaction(transaction *sql.Tx) error

	RollbackTransaction(transaction *sql.Tx) error

	Ping(ctx context.Context) error

	Close() error
}
