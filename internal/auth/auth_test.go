package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-secret"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("pw123")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.NotEqual(t, "pw123", hash)
	assert.True(t, VerifyPassword(hash, "pw123"))
	assert.False(t, VerifyPassword(hash, "pw124"))
	assert.False(t, VerifyPassword(hash, ""))
}

func TestHashPasswordIsSalted(t *testing.T) {
	first, err := HashPassword("pw123")
	require.NoError(t, err)
	second, err := HashPassword("pw123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokenRoundTrip(t *testing.T) {
	theAuth := New([]byte(testSecret), time.Hour)

	tokenString, err := theAuth.BuildJWTString(42, "a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := theAuth.GetClaimsFromToken(tokenString)
	require.NoError(t, err)

	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
}

func TestExpiredTokenRejected(t *testing.T) {
	theAuth := New([]byte(testSecret), -time.Minute)

	tokenString, err := theAuth.BuildJWTString(1, "a@x.com")
	require.NoError(t, err)

	_, err = theAuth.GetClaimsFromToken(tokenString)
	assert.ErrorIs(t, err, ErrInvalidTokenOrJwtParsing)
}

func TestForeignSignatureRejected(t *testing.T) {
	issuer := New([]byte("some-other-secret"), time.Hour)
	verifier := New([]byte(testSecret), time.Hour)

	tokenString, err := issuer.BuildJWTString(1, "a@x.com")
	require.NoError(t, err)

	_, err = verifier.GetClaimsFromToken(tokenString)
	assert.ErrorIs(t, err, ErrInvalidTokenOrJwtParsing)
}

func TestAuthenticateMiddleware(t *testing.T) {
	theAuth := New([]byte(testSecret), time.Hour)

	validToken, err := theAuth.BuildJWTString(7, "a@x.com")
	require.NoError(t, err)

	expiredToken, err := New([]byte(testSecret), -time.Minute).BuildJWTString(7, "a@x.com")
	require.NoError(t, err)

	var gotUserID int64
	var gotEmail string
	next := http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		userID, ok := UserIDFromContext(request.Context())
		require.True(t, ok)
		email, ok := UserEmailFromContext(request.Context())
		require.True(t, ok)
		gotUserID = userID
		gotEmail = email
		response.WriteHeader(http.StatusOK)
	})
	handler := theAuth.Authenticate(next)

	testCases := []struct {
		name         string
		header       string
		expectedCode int
	}{
		{
			name:         "valid_bearer_token",
			header:       "Bearer " + validToken,
			expectedCode: http.StatusOK,
		},
		{
			name:         "missing_header",
			header:       "",
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "missing_bearer_prefix",
			header:       validToken,
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "garbage_token",
			header:       "Bearer not.a.jwt",
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "expired_token",
			header:       "Bearer " + expiredToken,
			expectedCode: http.StatusUnauthorized,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/notes", nil)
			if testCase.header != "" {
				request.Header.Set("Authorization", testCase.header)
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, testCase.expectedCode, recorder.Code)
			if testCase.expectedCode == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"unauthorized"}`, recorder.Body.String())
			}
		})
	}

	assert.Equal(t, int64(7), gotUserID)
	assert.Equal(t, "a@x.com", gotEmail)
}
