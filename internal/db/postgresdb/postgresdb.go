// Package postgresdb provides the PostgreSQL-based implementation of the
// storage interface for persisting users and their notes.
// It runs goose schema migrations on startup and supports transactional
// operations and ownership-scoped conditional writes.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dsavelev/notesapi/internal/models"
	"github.com/dsavelev/notesapi/internal/user"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// maxOpenConns bounds the connection pool; requests beyond capacity wait
// for a free connection instead of failing.
const maxOpenConns = 10

// PostgresDB is a PostgreSQL-backed implementation of the notes storage.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset enables dropping the whole schema before migration.
// It is meant for test setups.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New establishes a connection to the PostgreSQL database,
// runs schema migrations, and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}
	database.SetMaxOpenConns(maxOpenConns)

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			return nil,
				fmt.Errorf(
					"in internal/db/postgresdb/postgresdb.go/New(): error while `result.resetDB()` calling: %w",
					err,
				)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.SetDialect()` calling: %w",
				err,
			)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.Up()` calling: %w",
				err,
			)
	}

	return result, nil
}

// CreateUser inserts a new user row and returns the stored record.
// A duplicate email yields models.ErrEmailExists.
func (db *PostgresDB) CreateUser(
	ctx context.Context,
	email string,
	passwordHash string,
	transaction *sql.Tx,
) (*user.User, error) {
	var database queryer
	if transaction == nil {
		database = db.database
	} else {
		database = transaction
	}

	row := database.QueryRowContext(
		ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id, created_at`,
		email,
		passwordHash,
	)

	result := &user.User{
		Email:        email,
		PasswordHash: passwordHash,
	}
	err := row.Scan(&result.ID, &result.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, models.ErrEmailExists
		}
		return nil, err
	}

	return result, nil
}

// FindUserByEmail fetches a user by the exact email value.
// The boolean result reports whether the user exists.
func (db *PostgresDB) FindUserByEmail(
	ctx context.Context,
	email string,
	transaction *sql.Tx,
) (*user.User, bool, error) {
	var database queryer
	if transaction == nil {
		database = db.database
	} else {
		database = transaction
	}

	row := database.QueryRowContext(
		ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`,
		email,
	)

	result := &user.User{}
	err := row.Scan(&result.ID, &result.Email, &result.PasswordHash, &result.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return result, true, nil
}

// GetUsers returns every account's public metadata, newest first.
func (db *PostgresDB) GetUsers(ctx context.Context) ([]models.UserListItem, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`SELECT id, email, created_at FROM users ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.UserListItem{}
	for rows.Next() {
		var item models.UserListItem
		if err := rows.Scan(&item.ID, &item.Email, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// GetUserNotes returns the caller's notes ordered by identifier descending.
func (db *PostgresDB) GetUserNotes(ctx context.Context, userID int64) ([]models.Note, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`SELECT id, title, content, created_at FROM notes WHERE user_id = $1 ORDER BY id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.Note{}
	for rows.Next() {
		var note models.Note
		if err := rows.Scan(&note.ID, &note.Title, &note.Content, &note.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, note)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// CreateNote persists a note owned by the given user and returns the
// stored record with its server-assigned identifier and timestamp.
func (db *PostgresDB) CreateNote(
	ctx context.Context,
	userID int64,
	title string,
	content string,
) (*models.Note, error) {
	row := db.database.QueryRowContext(
		ctx,
		`INSERT INTO notes (user_id, title, content) VALUES ($1, $2, $3) RETURNING id, created_at`,
		userID,
		title,
		content,
	)

	result := &models.Note{
		Title:   title,
		Content: content,
	}
	if err := row.Scan(&result.ID, &result.CreatedAt); err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateNote rewrites title and content of a note matched by both its
// identifier and its owner. The boolean result is false when no row
// matched, which covers nonexistent and foreign notes alike.
func (db *PostgresDB) UpdateNote(
	ctx context.Context,
	userID int64,
	noteID int64,
	title string,
	content string,
) (*models.Note, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`
			UPDATE notes
				SET title = $1, content = $2
				WHERE id = $3 AND user_id = $4
				RETURNING id, title, content, created_at
		`,
		title,
		content,
		noteID,
		userID,
	)

	result := &models.Note{}
	err := row.Scan(&result.ID, &result.Title, &result.Content, &result.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return result, true, nil
}

// DeleteNote removes a note matched by identifier and owner.
// A non-matching identifier is not an error.
func (db *PostgresDB) DeleteNote(ctx context.Context, userID int64, noteID int64) error {
	_, err := db.database.ExecContext(
		ctx,
		`DELETE FROM notes WHERE id = $1 AND user_id = $2`,
		noteID,
		userID,
	)

	return err
}

// GetAllNotes returns every stored note with its owner, newest first.
func (db *PostgresDB) GetAllNotes(ctx context.Context) ([]models.Note, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`SELECT id, user_id, title, content, created_at FROM notes ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.Note{}
	for rows.Next() {
		var note models.Note
		if err := rows.Scan(&note.ID, &note.UserID, &note.Title, &note.Content, &note.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, note)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// CommitTransaction commits the given SQL transaction.
func (db *PostgresDB) CommitTransaction(transaction *sql.Tx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic occurred while committing transaction: %v", r)
		}
	}()

	return transaction.Commit()
}

// RollbackTransaction rolls back the given SQL transaction.
func (db *PostgresDB) RollbackTransaction(transaction *sql.Tx) error {
	return transaction.Rollback()
}

// BeginTransaction starts a new SQL transaction and returns it.
// The caller is responsible for committing or rolling it back.
func (db *PostgresDB) BeginTransaction() (*sql.Tx, error) {
	return db.database.Begin()
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/resetDB(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}
	return nil
}
