package push

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/wehave/market/internal/services/db"
)

func newRouter(s *Service) http.Handler {
	cr := chi.NewRouter()
	cr.Route("/push/{account}", func(cr chi.Router) {
		cr.Put("/", s.AddToken)
		cr.Delete("/{token}", s.RemoveAccountToken)
	})
	return cr
}

func TestPushTokens(t *testing.T) {
	store := db.NewMemoryDB()
	h := newRouter(NewService(store))

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	rr := do(http.MethodPut, "/push/alice.testnet", `{"token":"t1","account":"mallory.testnet"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"account":"alice.testnet"`)

	tokens, err := store.Tokens(context.Background())
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	require.Equal(t, "alice.testnet", tokens[0].Account)

	rr = do(http.MethodPut, "/push/alice.testnet", `{}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), ErrMissingToken.Error())

	rr = do(http.MethodPut, "/push/Not..Valid", `{"token":"t2"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(http.MethodPut, "/push/alice.testnet", `not json`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(http.MethodDelete, "/push/alice.testnet/t1", "")
	require.Equal(t, http.StatusOK, rr.Code)

	tokens, err = store.Tokens(context.Background())
	require.NoError(t, err)
	require.Empty(t, tokens)
}
