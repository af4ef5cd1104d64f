package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/wehave/market/internal/near"
	"github.com/wehave/market/internal/wallet"
	"github.com/wehave/market/pkg/market"
)

type fakeWallet struct {
	session *market.Session
	result  json.RawMessage
	hashes  []string
}

func (f *fakeWallet) Session() *market.Session {
	return f.session
}

func (f *fakeWallet) SignIn(ctx context.Context, accountID string) (*market.Session, error) {
	if err := near.ValidateAccountID(accountID); err != nil {
		return nil, err
	}

	if accountID != "alice.testnet" {
		return nil, fmt.Errorf("%w: %s", wallet.ErrKeyNotFound, accountID)
	}

	f.session = &market.Session{Network: "testnet", AccountID: accountID, SignedInAt: time.Now()}
	return f.session, nil
}

func (f *fakeWallet) SignOut() error {
	f.session = nil
	return nil
}

func (f *fakeWallet) TransactionResult(ctx context.Context, hash string) (json.RawMessage, error) {
	f.hashes = append(f.hashes, hash)
	if f.result == nil {
		return nil, errors.New("unknown transaction")
	}
	return f.result, nil
}

type fakeKeys []string

func (f fakeKeys) Accounts() ([]string, error) {
	return f, nil
}

func newRouter(s *Service) http.Handler {
	cr := chi.NewRouter()
	cr.Get("/accounts", s.Accounts)
	cr.Get("/session", s.GetSession)
	cr.Post("/session", s.SignIn)
	cr.Delete("/session", s.SignOut)
	cr.Get("/tx/{hash}", s.TransactionResult)
	return cr
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestSession(t *testing.T) {
	fw := &fakeWallet{}
	h := newRouter(NewService(fw, fakeKeys{"alice.testnet"}))

	rr := do(h, http.MethodGet, "/session", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"signed_in":false`)

	rr = do(h, http.MethodPost, "/session", `{"account_id":"bob.testnet"}`)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(h, http.MethodPost, "/session", `{"account_id":"NOPE"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(h, http.MethodPost, "/session", `{"account_id":"alice.testnet"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"account_id":"alice.testnet"`)

	rr = do(h, http.MethodGet, "/session", "")
	require.Contains(t, rr.Body.String(), `"signed_in":true`)

	rr = do(h, http.MethodDelete, "/session", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Nil(t, fw.session)

	rr = do(h, http.MethodGet, "/accounts", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"array":["alice.testnet"]`)
}

func TestTransactionResult(t *testing.T) {
	fw := &fakeWallet{}
	h := newRouter(NewService(fw, fakeKeys{}))

	hash := strings.Repeat("1", 32)

	rr := do(h, http.MethodGet, "/tx/"+hash, "")
	require.Equal(t, http.StatusBadGateway, rr.Code)
	require.Contains(t, rr.Body.String(), "unknown transaction")

	fw.result = json.RawMessage(`"ok"`)
	rr = do(h, http.MethodGet, "/tx/"+hash, "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"object":"ok"`)

	rr = do(h, http.MethodGet, "/tx/not-base58!", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, []string{hash, hash}, fw.hashes)
}
