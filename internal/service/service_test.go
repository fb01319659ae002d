package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dsavelev/notesapi/internal/apperror"
	"github.com/dsavelev/notesapi/internal/auth"
	"github.com/dsavelev/notesapi/internal/db/memorystorage"
	"github.com/dsavelev/notesapi/internal/mockstorage"
	"github.com/dsavelev/notesapi/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := memorystorage.New()
	require.NoError(t, err)

	return New(db, auth.New([]byte("test-signing-secret"), time.Hour))
}

func registerTestUser(t *testing.T, svc *Service, email string) *models.RegisteredUser {
	t.Helper()

	registered, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    email,
		Password: "pw123",
	})
	require.NoError(t, err)

	return registered
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	registered := registerTestUser(t, svc, "a@x.com")
	assert.Equal(t, int64(1), registered.ID)
	assert.Equal(t, "a@x.com", registered.Email)

	loginResponse, err := svc.Login(ctx, models.LoginRequest{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)
	assert.NotEmpty(t, loginResponse.Token)
	assert.Equal(t, registered.ID, loginResponse.User.ID)
	assert.Equal(t, "a@x.com", loginResponse.User.Email)

	claims, err := auth.New([]byte("test-signing-secret"), time.Hour).GetClaimsFromToken(loginResponse.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	testCases := []struct {
		name    string
		request models.RegisterRequest
	}{
		{name: "missing_email", request: models.RegisterRequest{Password: "pw123"}},
		{name: "missing_password", request: models.RegisterRequest{Email: "a@x.com"}},
		{name: "both_missing", request: models.RegisterRequest{}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := svc.Register(ctx, testCase.request)
			require.Error(t, err)

			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperror.ValidationError, appErr.Type)
			assert.Equal(t, "email and password required", appErr.Message)
		})
	}
}

func TestRegisterDuplicateEmailCreatesNoSecondRow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	registerTestUser(t, svc, "a@x.com")

	_, err := svc.Register(ctx, models.RegisterRequest{Email: "a@x.com", Password: "other"})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ConflictError, appErr.Type)
	assert.Equal(t, "email already registered", appErr.Message)

	users, err := svc.GetUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestLoginDoesNotLeakWhichCredentialWasWrong(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	registerTestUser(t, svc, "a@x.com")

	_, wrongPasswordErr := svc.Login(ctx, models.LoginRequest{Email: "a@x.com", Password: "nope"})
	_, unknownEmailErr := svc.Login(ctx, models.LoginRequest{Email: "b@x.com", Password: "pw123"})

	require.Error(t, wrongPasswordErr)
	require.Error(t, unknownEmailErr)
	assert.Equal(t, wrongPasswordErr.Error(), unknownEmailErr.Error())

	var appErr *apperror.AppError
	require.ErrorAs(t, wrongPasswordErr, &appErr)
	assert.Equal(t, apperror.InvalidCredentialsError, appErr.Type)
	assert.Equal(t, "invalid email or password", appErr.Message)
}

func TestCreateNoteDefaultsAndListOrdering(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	owner := registerTestUser(t, svc, "a@x.com")

	first, err := svc.CreateNote(ctx, owner.ID, models.NoteRequest{Title: "T1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "T1", first.Title)
	assert.Equal(t, "", first.Content)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := svc.CreateNote(ctx, owner.ID, models.NoteRequest{Title: "T2", Content: "C2"})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	notes, err := svc.ListNotes(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, second.ID, notes[0].ID)
	assert.Equal(t, first.ID, notes[1].ID)
	assert.Equal(t, "C2", notes[0].Content)
	assert.Equal(t, "", notes[1].Content)
}

func TestCreateNoteRequiresTitle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	owner := registerTestUser(t, svc, "a@x.com")

	_, err := svc.CreateNote(ctx, owner.ID, models.NoteRequest{Content: "C"})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ValidationError, appErr.Type)
	assert.Equal(t, "title required", appErr.Message)
}

func TestOwnershipIsolation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	alice := registerTestUser(t, svc, "alice@x.com")
	bob := registerTestUser(t, svc, "bob@x.com")

	aliceNote, err := svc.CreateNote(ctx, alice.ID, models.NoteRequest{Title: "secret", Content: "C"})
	require.NoError(t, err)

	bobNotes, err := svc.ListNotes(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobNotes)

	updated, err := svc.UpdateNote(ctx, bob.ID, aliceNote.ID, models.NoteRequest{Title: "stolen"})
	require.NoError(t, err)
	assert.Nil(t, updated)

	require.NoError(t, svc.DeleteNote(ctx, bob.ID, aliceNote.ID))

	aliceNotes, err := svc.ListNotes(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceNotes, 1)
	assert.Equal(t, "secret", aliceNotes[0].Title)
}

func TestUpdateNote(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	owner := registerTestUser(t, svc, "a@x.com")

	note, err := svc.CreateNote(ctx, owner.ID, models.NoteRequest{Title: "T", Content: "C"})
	require.NoError(t, err)

	updated, err := svc.UpdateNote(ctx, owner.ID, note.ID, models.NoteRequest{Title: "T2", Content: "C2"})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, note.ID, updated.ID)
	assert.Equal(t, "T2", updated.Title)
	assert.Equal(t, "C2", updated.Content)

	missed, err := svc.UpdateNote(ctx, owner.ID, note.ID+100, models.NoteRequest{Title: "T3"})
	require.NoError(t, err)
	assert.Nil(t, missed)
}

func TestDeleteNoteIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	owner := registerTestUser(t, svc, "a@x.com")

	note, err := svc.CreateNote(ctx, owner.ID, models.NoteRequest{Title: "T"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteNote(ctx, owner.ID, note.ID))
	require.NoError(t, svc.DeleteNote(ctx, owner.ID, note.ID))

	notes, err := svc.ListNotes(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestGetAllNotesCarriesOwners(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	alice := registerTestUser(t, svc, "alice@x.com")
	bob := registerTestUser(t, svc, "bob@x.com")

	_, err := svc.CreateNote(ctx, alice.ID, models.NoteRequest{Title: "A"})
	require.NoError(t, err)
	_, err = svc.CreateNote(ctx, bob.ID, models.NoteRequest{Title: "B"})
	require.NoError(t, err)

	notes, err := svc.GetAllNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)

	owners := []int64{notes[0].UserID, notes[1].UserID}
	assert.Contains(t, owners, alice.ID)
	assert.Contains(t, owners, bob.ID)
}

func TestRegisterStorageFailure(t *testing.T) {
	db := &mockstorage.StorageMock{}
	db.On("BeginTransaction").Return(nil, errors.New("connection refused"))

	svc := New(db, auth.New([]byte("test-signing-secret"), time.Hour))

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "a@x.com",
		Password: "pw123",
	})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.StorageError, appErr.Type)
	db.AssertExpectations(t)
}

func TestListNotesStorageFailure(t *testing.T) {
	db := &mockstorage.StorageMock{}
	db.On("GetUserNotes", mock.Anything, int64(1)).Return(nil, errors.New("connection refused"))

	svc := New(db, auth.New([]byte("test-signing-secret"), time.Hour))

	_, err := svc.ListNotes(context.Background(), 1)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.StorageError, appErr.Type)
	db.AssertExpectations(t)
}
