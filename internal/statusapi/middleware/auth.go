package middleware

import (
	"crypto/sha256"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const bcryptInputLimit = 72

// HashAPIKey bcrypt-hashes an operator API key for storage in
// configuration, mirroring the bcrypt-with-sha256-prehash pattern used
// elsewhere in this codebase for values that may exceed bcrypt's 72-byte
// input limit.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prepareBcryptInput(key), bcrypt.DefaultCost)

	return string(hash), err
}

func prepareBcryptInput(key string) []byte {
	if len(key) <= bcryptInputLimit {
		return []byte(key)
	}

	sum := sha256.Sum256([]byte(key))

	return sum[:]
}

// BearerAuth requires a valid "Authorization: Bearer <key>" header when
// keyHash is non-empty. An empty keyHash disables auth entirely
// (status_api.api_key unset).
func BearerAuth(keyHash string) Option {
	if keyHash == "" {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok || bcrypt.CompareHashAndPassword([]byte(keyHash), prepareBcryptInput(token)) != nil {
				WriteProblem(w, r, http.StatusUnauthorized, "Unauthorized", "missing or invalid API key")

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")

	const prefix = "Bearer "

	if !strings.HasPrefix(header, prefix) {
		return "", false
	}

	token := strings.TrimPrefix(header, prefix)

	return token, token != ""
}
