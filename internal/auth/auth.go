package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

type Auth struct {
	apiKey string
}

func New(apiKey string) *Auth {
	return &Auth{apiKey: apiKey}
}

// AuthMiddleware is a middleware that checks for a valid API key. An empty key
// disables the check.
func (a *Auth) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.apiKey == "" || r.URL.Path == "/health" || r.URL.Path == "/metrics" || r.URL.Path == "/version" {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := r.Header.Get("Authorization")
		apiKey = strings.TrimPrefix(apiKey, "Bearer ")
		if apiKey == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(a.apiKey)) != 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
