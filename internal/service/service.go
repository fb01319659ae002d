// Package service implements the business rules of the notes API:
// account registration and login, and ownership-scoped note CRUD.
package service

import (
	"context"
	"database/sql"
	"errors"

	validator "github.com/go-playground/validator/v10"

	"github.com/dsavelev/notesapi/internal/apperror"
	"github.com/dsavelev/notesapi/internal/auth"
	"github.com/dsavelev/notesapi/internal/models"
	"github.com/dsavelev/notesapi/internal/user"
)

type userKeeper interface {
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
}

type notesKeeper interface {
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
}

type transactioner interface {
	BeginTransaction() (*sql.Tx, error)

	RollbackTransaction(transaction *sql.Tx) error

	CommitTransaction(transaction *sql.Tx) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	userKeeper
	notesKeeper
	transactioner
	pinger
}

type tokenIssuer interface {
	BuildJWTString(userID int64, email string) (string, error)
}

// Service wires the storage and the token issuer into the API operations.
type Service struct {
	db        storage
	tokens    tokenIssuer
	validator *validator.Validate
}

// New creates a Service over the given storage and token issuer.
func New(db storage, tokens tokenIssuer) *Service {
	return &Service{
		db:        db,
		tokens:    tokens,
		validator: validator.New(),
	}
}

// Register creates a new account. Both fields are required; a duplicate
// email is rejected without creating a second row. The password is stored
// only as a bcrypt hash; the response carries the public fields only.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisteredUser, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperror.NewValidationError("email and password required")
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperror.NewStorageError("failed to hash password", err)
	}

	tx, err := s.db.BeginTransaction()
	if err != nil {
		return nil, apperror.NewStorageError("failed to begin transaction", err)
	}

	_, exists, err := s.db.FindUserByEmail(ctx, req.Email, tx)
	if err != nil {
		_ = s.db.RollbackTransaction(tx)
		return nil, apperror.NewStorageError("failed to check email", err)
	}
	if exists {
		_ = s.db.RollbackTransaction(tx)
		return nil, apperror.NewConflictError("email already registered")
	}

	usr, err := s.db.CreateUser(ctx, req.Email, passwordHash, tx)
	if err != nil {
		_ = s.db.RollbackTransaction(tx)
		if errors.Is(err, models.ErrEmailExists) {
			return nil, apperror.NewConflictError("email already registered")
		}
		return nil, apperror.NewStorageError("failed to create user", err)
	}

	if err := s.db.CommitTransaction(tx); err != nil {
		return nil, apperror.NewStorageError("failed to commit transaction", err)
	}

	return &models.RegisteredUser{ID: usr.ID, Email: usr.Email}, nil
}

// Login verifies the credentials and issues a session token. An unknown
// email and a wrong password produce the same error so the endpoint
// cannot be used to probe which emails are registered.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperror.NewValidationError("email and password required")
	}

	usr, found, err := s.db.FindUserByEmail(ctx, req.Email, nil)
	if err != nil {
		return nil, apperror.NewStorageError("failed to get user", err)
	}
	if !found || !auth.VerifyPassword(usr.PasswordHash, req.Password) {
		return nil, apperror.NewInvalidCredentialsError("invalid email or password")
	}

	token, err := s.tokens.BuildJWTString(usr.ID, usr.Email)
	if err != nil {
		return nil, apperror.NewStorageError("failed to issue token", err)
	}

	return &models.LoginResponse{
		Token: token,
		User:  models.RegisteredUser{ID: usr.ID, Email: usr.Email},
	}, nil
}

// ListNotes returns the caller's notes, newest first, an empty list when
// there are none.
func (s *Service) ListNotes(ctx context.Context, userID int64) ([]models.Note, error) {
	notes, err := s.db.GetUserNotes(ctx, userID)
	if err != nil {
		return nil, apperror.NewStorageError("failed to list notes", err)
	}

	return notes, nil
}

// CreateNote persists a note owned by the caller. Title is required;
// a missing content is stored as an empty string.
func (s *Service) CreateNote(ctx context.Context, userID int64, req models.NoteRequest) (*models.Note, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperror.NewValidationError("title required")
	}

	note, err := s.db.CreateNote(ctx, userID, req.Title, req.Content)
	if err != nil {
		return nil, apperror.NewStorageError("failed to create note", err)
	}

	return note, nil
}

// UpdateNote rewrites a note matched by identifier and caller ownership.
// When nothing matches it returns (nil, nil): the handler answers with an
// empty object instead of an error, keeping misses indistinguishable from
// foreign notes.
func (s *Service) UpdateNote(
	ctx context.Context,
	userID int64,
	noteID int64,
	req models.NoteRequest,
) (*models.Note, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperror.NewValidationError("title required")
	}

	note, found, err := s.db.UpdateNote(ctx, userID, noteID, req.Title, req.Content)
	if err != nil {
		return nil, apperror.NewStorageError("failed to update note", err)
	}
	if !found {
		return nil, nil
	}

	return note, nil
}

// DeleteNote removes a note matched by identifier and caller ownership.
// It reports success whether or not a row matched, so repeating a delete
// is harmless.
func (s *Service) DeleteNote(ctx context.Context, userID int64, noteID int64) error {
	if err := s.db.DeleteNote(ctx, userID, noteID); err != nil {
		return apperror.NewStorageError("failed to delete note", err)
	}

	return nil
}

// GetUsers returns account metadata for the debug listing.
func (s *Service) GetUsers(ctx context.Context) ([]models.UserListItem, error) {
	users, err := s.db.GetUsers(ctx)
	if err != nil {
		return nil, apperror.NewStorageError("failed to list users", err)
	}

	return users, nil
}

// GetAllNotes returns every note with its owner for the debug listing.
func (s *Service) GetAllNotes(ctx context.Context) ([]models.Note, error) {
	notes, err := s.db.GetAllNotes(ctx)
	if err != nil {
		return nil, apperror.NewStorageError("failed to list notes", err)
	}

	return notes, nil
}

// Ping checks storage connectivity for the health endpoint.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
