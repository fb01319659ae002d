// Package models contains the request and response structures
// exchanged over the HTTP API.
package models

import (
	"errors"
	"time"
)

// ErrEmailExists is reported by storages when an insert hits the unique
// email constraint.
var ErrEmailExists = errors.New("email already registered")

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisteredUser is the public projection of a user account.
// It never carries the password hash.
type RegisteredUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// LoginResponse is returned by a successful POST /auth/login.
type LoginResponse struct {
	Token string         `json:"token"`
	User  RegisteredUser `json:"user"`
}

// NoteRequest is the body of POST /notes and PUT /notes/{id}.
// Content is optional and defaults to an empty string.
type NoteRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content"`
}

// Note is a stored note as returned to its owner.
// UserID is only populated by the administrative listing and is
// omitted from owner-facing responses.
type Note struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id,omitempty"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// UserListItem is one row of the administrative GET /users listing:
// account metadata only, never the password hash.
type UserListItem struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// DeleteNoteResponse is returned by DELETE /notes/{id}.
type DeleteNoteResponse struct {
	Deleted bool `json:"deleted"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ErrorResponse is the uniform error body: every failed request
// answers with an HTTP status and `{"error": "..."}`.
type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	// StorageTypeUnknown marks an unrecognized storage configuration.
	StorageTypeUnknown = iota

	// StorageTypePostgresql selects the PostgreSQL storage.
	StorageTypePostgresql

	// StorageTypeFile selects the JSON file storage.
	StorageTypeFile

	// StorageTypeMemory selects the in-memory storage.
	StorageTypeMemory
)
