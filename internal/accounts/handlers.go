package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	com "github.com/wehave/market/internal/common"
	"github.com/wehave/market/internal/near"
	"github.com/wehave/market/internal/wallet"
	"github.com/wehave/market/pkg/market"
)

// Wallet is the session part of the wallet.
type Wallet interface {
	Session() *market.Session
	SignIn(ctx context.Context, accountID string) (*market.Session, error)
	SignOut() error
	TransactionResult(ctx context.Context, hash string) (json.RawMessage, error)
}

type KeyLister interface {
	Accounts() ([]string, error)
}

type Service struct {
	w    Wallet
	keys KeyLister
}

func NewService(w Wallet, keys KeyLister) *Service {
	return &Service{
		w:    w,
		keys: keys,
	}
}

type sessionResponse struct {
	SignedIn bool            `json:"signed_in"`
	Session  *market.Session `json:"session,omitempty"`
}

// Accounts lists the accounts that can sign in
func (s *Service) Accounts(w http.ResponseWriter, r *http.Request) {
	accs, err := s.keys.Accounts()
	if err != nil {
		com.Error(w, http.StatusInternalServerError, err)
		return
	}

	if accs == nil {
		accs = []string{}
	}

	err = com.BodyMultiple(w, accs, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// GetSession returns the current session
func (s *Service) GetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.w.Session()

	err := com.Body(w, &sessionResponse{SignedIn: sess != nil, Session: sess}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

type signInRequest struct {
	AccountID string `json:"account_id"`
}

// SignIn starts a session for an account with a local key
func (s *Service) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		com.Error(w, http.StatusBadRequest, err)
		return
	}
	defer r.Body.Close()

	sess, err := s.w.SignIn(r.Context(), req.AccountID)
	if err != nil {
		switch {
		case errors.Is(err, near.ErrInvalidAccountID), errors.Is(err, near.ErrInvalidKey):
			com.Error(w, http.StatusBadRequest, err)
		case errors.Is(err, wallet.ErrKeyNotFound):
			com.Error(w, http.StatusNotFound, err)
		default:
			com.Error(w, http.StatusBadGateway, err)
		}
		return
	}

	err = com.Body(w, &sessionResponse{SignedIn: true, Session: sess}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// SignOut ends the current session
func (s *Service) SignOut(w http.ResponseWriter, r *http.Request) {
	err := s.w.SignOut()
	if err != nil {
		com.Error(w, http.StatusInternalServerError, err)
		return
	}

	err = com.Body(w, &sessionResponse{SignedIn: false}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// TransactionResult returns the value of the last receipt of a transaction
func (s *Service) TransactionResult(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	if _, err := near.DecodeBlockHash(hash); err != nil {
		com.Error(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.w.TransactionResult(r.Context(), hash)
	if err != nil {
		com.Error(w, http.StatusBadGateway, err)
		return
	}

	if len(res) == 0 {
		res = json.RawMessage("null")
	}

	err = com.Body(w, res, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
