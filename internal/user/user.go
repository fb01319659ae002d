// Package user defines the user account model used by the authentication
// flow and by ownership scoping of notes.
package user

import "time"

// User represents a registered account.
// PasswordHash holds the bcrypt digest and must never leave the server.
type User struct {
	// ID is the server-assigned unique identifier of the user.
	ID int64

	// Email is the login identifier, unique across accounts,
	// stored exactly as submitted.
	Email string

	// PasswordHash is the salted bcrypt hash of the user's password.
	PasswordHash string

	// CreatedAt is the registration timestamp.
	CreatedAt time.Time
}
