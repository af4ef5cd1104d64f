package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestHealthMiddleware(t *testing.T) {
	called := false
	h := HealthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.False(t, called)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items", nil))
	require.True(t, called)
}

func TestOptionsMiddleware(t *testing.T) {
	cr := chi.NewRouter()
	cr.Use(OptionsMiddleware)
	cr.Get("/options-test/{index}", func(w http.ResponseWriter, r *http.Request) {})
	cr.Post("/options-test/{index}", func(w http.ResponseWriter, r *http.Request) {})

	rr := httptest.NewRecorder()
	cr.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/options-test/1", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "GET, POST, OPTIONS", rr.Header().Get("Allow"))
	require.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	h := RequestSizeLimitMiddleware(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("1234")))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("12345")))
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}
