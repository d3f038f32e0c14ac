package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAPIKey_VerifiesWithBearerAuth(t *testing.T) {
	hash, err := HashAPIKey("operator-secret")
	require.NoError(t, err)

	handler := BearerAuth(hash)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/runs/1", nil)
	req.Header.Set("Authorization", "Bearer operator-secret")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHashAPIKey_LongKeyOverBcryptLimit(t *testing.T) {
	longKey := make([]byte, 200)
	for i := range longKey {
		longKey[i] = 'a'
	}

	hash, err := HashAPIKey(string(longKey))
	require.NoError(t, err)

	handler := BearerAuth(hash)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/runs/1", nil)
	req.Header.Set("Authorization", "Bearer "+string(longKey))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerAuth_EmptyHashDisablesAuth(t *testing.T) {
	handler := BearerAuth("")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/runs/1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerAuth_MissingHeaderRejected(t *testing.T) {
	hash, err := HashAPIKey("operator-secret")
	require.NoError(t, err)

	handler := BearerAuth(hash)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/runs/1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerAuth_WrongKeyRejected(t *testing.T) {
	hash, err := HashAPIKey("operator-secret")
	require.NoError(t, err)

	handler := BearerAuth(hash)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/runs/1", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerToken_RejectsNonBearerScheme(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/runs/1", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	_, ok := bearerToken(req)
	assert.False(t, ok)
}

func TestBearerToken_RejectsEmptyToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/runs/1", nil)
	req.Header.Set("Authorization", "Bearer ")

	_, ok := bearerToken(req)
	assert.False(t, ok)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
