// Package auth provides password hashing, JWT session token management
// and the HTTP middleware protecting the notes routes. Tokens are signed,
// stateless credentials: the middleware trusts the embedded claims and
// performs no storage lookup, so a token stays valid until its expiry.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dsavelev/notesapi/internal/models"
)

// ErrInvalidTokenOrJwtParsing is returned when a token is malformed,
// expired or carries an invalid signature.
var ErrInvalidTokenOrJwtParsing = errors.New("invalid token or JWT parsing error")

// passwordHashCost is the bcrypt cost factor used for new accounts.
const passwordHashCost = bcrypt.DefaultCost

// Claims represents the JWT claims carried by a session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

const (
	// UserIDKey is the context key holding the authenticated user's ID.
	UserIDKey ContextKey = "userID"

	// UserEmailKey is the context key holding the authenticated user's email.
	UserEmailKey ContextKey = "userEmail"
)

// Auth issues and verifies session tokens and hashes passwords.
type Auth struct {
	signingSecretKey []byte
	tokenTTL         time.Duration
}

// New creates an Auth configured with the JWT signing secret and the
// lifetime of issued tokens.
func New(signingSecretKey []byte, tokenTTL time.Duration) *Auth {
	return &Auth{
		signingSecretKey: signingSecretKey,
		tokenTTL:         tokenTTL,
	}
}

// HashPassword returns the salted bcrypt hash of a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", fmt.Errorf("in internal/auth/auth.go/HashPassword(): error while `bcrypt.GenerateFromPassword()` calling: %w", err)
	}

	return string(hash), nil
}

// VerifyPassword reports whether the plaintext password matches the
// stored bcrypt hash.
func VerifyPassword(passwordHash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) == nil
}

// BuildJWTString issues a signed session token for the given user.
func (a *Auth) BuildJWTString(userID int64, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
		},
		UserID: userID,
		Email:  email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(a.signingSecretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetClaimsFromToken parses and verifies a session token and returns its
// claims. Any verification failure yields ErrInvalidTokenOrJwtParsing.
func (a *Auth) GetClaimsFromToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.signingSecretKey, nil
		},
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidTokenOrJwtParsing
	}

	return claims, nil
}

// Authenticate is the HTTP middleware of the protected routes. It requires
// an `Authorization: Bearer <token>` header, rejects the request with 401
// otherwise, and puts the token's user identity into the request context.
func (a *Auth) Authenticate(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		tokenString, ok := bearerToken(request)
		if !ok {
			writeUnauthorized(response)
			return
		}

		claims, err := a.GetClaimsFromToken(tokenString)
		if err != nil {
			writeUnauthorized(response)
			return
		}

		ctx := context.WithValue(request.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, UserEmailKey, claims.Email)

		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// UserIDFromContext returns the authenticated user's ID placed into the
// context by Authenticate.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)

	return userID, ok
}

// UserEmailFromContext returns the authenticated user's email placed into
// the context by Authenticate.
func UserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)

	return email, ok
}

func bearerToken(request *http.Request) (string, bool) {
	header := request.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		return "", false
	}

	return tokenString, true
}

func writeUnauthorized(response http.ResponseWriter) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(http.StatusUnauthorized)

	_ = json.NewEncoder(response).Encode(models.ErrorResponse{Error: "unauthorized"})
}
