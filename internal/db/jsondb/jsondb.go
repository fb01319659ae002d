// Package jsondb implements the storage interface on top of an in-process
// cache persisted to a JSON file on Close. It backs local development and
// tests when PostgreSQL is not configured.
package jsondb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/thoas/go-funk"

	"github.com/dsavelev/notesapi/internal/models"
	"github.com/dsavelev/notesapi/internal/user"
)

// CacheStruct is the serialized shape of the whole database.
type CacheStruct struct {
	Users        map[int64]*user.User
	UsersByEmail map[string]int64
	NextUserID   int64
	Notes        map[int64]*models.Note
	NextNoteID   int64
}

// JSONDB keeps users and notes in memory and flushes them to a file.
type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"Users": {},
	"UsersByEmail": {},
	"NextUserID": 1,
	"Notes": {},
	"NextNoteID": 1
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %s", err)
	}

	file, err2 := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err2 != nil {
		return fmt.Errorf("error opening file: %s", err2)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %s", err)
	}

	return nil
}

func parseJSONFile(fileName string, cacheMap *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(cacheMap)
}

// New opens the JSON database file, creating it when absent.
func New(fileName string) (*JSONDB, error) {
	database := JSONDB{
		fileName: fileName,
		Cache:    CacheStruct{},
	}

	err := parseJSONFile(database.fileName, &database.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := initDBFile(fileName); err != nil {
			return nil, err
		}
		if err := parseJSONFile(database.fileName, &database.Cache); err != nil {
			return nil, err
		}
	}

	return &database, nil
}

// CreateUser stores a new account. A duplicate email yields models.ErrEmailExists.
func (db *JSONDB) CreateUser(
	ctx context.Context,
	email string,
	passwordHash string,
	transaction *sql.Tx,
) (*user.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.Cache.UsersByEmail[email]; exists {
		return nil, models.ErrEmailExists
	}

	usr := &user.User{
		ID:           db.Cache.NextUserID,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	db.Cache.NextUserID++
	db.Cache.Users[usr.ID] = usr
	db.Cache.UsersByEmail[email] = usr.ID

	return usr, nil
}

// FindUserByEmail fetches an account by its exact email value.
func (db *JSONDB) FindUserByEmail(
	ctx context.Context,
	email string,
	transaction *sql.Tx,
) (*user.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	userID, found := db.Cache.UsersByEmail[email]
	if !found {
		return nil, false, nil
	}

	return db.Cache.Users[userID], true, nil
}

// GetUsers returns every account's public metadata, newest first.
func (db *JSONDB) GetUsers(ctx context.Context) ([]models.UserListItem, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	result := []models.UserListItem{}
	for _, usr := range db.Cache.Users {
		result = append(result, models.UserListItem{
			ID:        usr.ID,
			Email:     usr.Email,
			CreatedAt: usr.CreatedAt,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })

	return result, nil
}

// GetUserNotes returns the caller's notes ordered by identifier descending.
func (db *JSONDB) GetUserNotes(ctx context.Context, userID int64) ([]models.Note, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	owned := funk.Filter(
		funk.Values(db.Cache.Notes).([]*models.Note),
		func(note *models.Note) bool { return note.UserID == userID },
	).([]*models.Note)

	result := []models.Note{}
	for _, note := range owned {
		copied := *note
		copied.UserID = 0
		result = append(result, copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })

	return result, nil
}

// CreateNote stores a new note owned by the given user.
func (db *JSONDB) CreateNote(
	ctx context.Context,
	userID int64,
	title string,
	content string,
) (*models.Note, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	note := &models.Note{
		ID:        db.Cache.NextNoteID,
		UserID:    userID,
		Title:     title,
		Content:   content,
		CreatedAt: time.Now(),
	}
	db.Cache.NextNoteID++
	db.Cache.Notes[note.ID] = note

	created := *note
	created.UserID = 0

	return &created, nil
}

// UpdateNote rewrites a note matched by identifier and owner.
// The boolean result is false when nothing matched.
func (db *JSONDB) UpdateNote(
	ctx context.Context,
	userID int64,
	noteID int64,
	title string,
	content string,
) (*models.Note, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	note, found := db.Cache.Notes[noteID]
	if !found || note.UserID != userID {
		return nil, false, nil
	}

	note.Title = title
	note.Content = content

	updated := *note
	updated.UserID = 0

	return &updated, true, nil
}

// DeleteNote removes a note matched by identifier and owner.
// A non-matching identifier is not an error.
func (db *JSONDB) DeleteNote(ctx context.Context, userID int64, noteID int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	note, found := db.Cache.Notes[noteID]
	if found && note.UserID == userID {
		delete(db.Cache.Notes, noteID)
	}

	return nil
}

// GetAllNotes returns every stored note with its owner, newest first.
func (db *JSONDB) GetAllNotes(ctx context.Context) ([]models.Note, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	result := []models.Note{}
	for _, note := range db.Cache.Notes {
		result = append(result, *note)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })

	return result, nil
}

// BeginTransaction is a no-op for the file storage.
func (db *JSONDB) BeginTransaction() (*sql.Tx, error) {
	return nil, nil
}

// CommitTransaction is a no-op for the file storage.
func (db *JSONDB) CommitTransaction(transaction *sql.Tx) error {
	return nil
}

// RollbackTransaction is a no-op for the file storage.
func (db *JSONDB) RollbackTransaction(transaction *sql.Tx) error {
	return nil
}

// Ping always succeeds for the file storage.
func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

// Close flushes the cache to the JSON file.
func (db *JSONDB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return writeToJSONFile(db.fileName, db.Cache)
}
