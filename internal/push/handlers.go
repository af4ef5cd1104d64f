package push

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	com "github.com/wehave/market/internal/common"
	"github.com/wehave/market/internal/near"
	"github.com/wehave/market/pkg/market"
)

var ErrMissingToken = errors.New("missing push token")

type Service struct {
	db market.PushTokenStore
}

func NewService(db market.PushTokenStore) *Service {
	return &Service{
		db: db,
	}
}

// AddToken registers a push token for the account in the url
func (s *Service) AddToken(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	if err := near.ValidateAccountID(account); err != nil {
		com.Error(w, http.StatusBadRequest, err)
		return
	}

	var pt market.PushToken
	err := json.NewDecoder(r.Body).Decode(&pt)
	if err != nil {
		com.Error(w, http.StatusBadRequest, err)
		return
	}
	defer r.Body.Close()

	if pt.Token == "" {
		com.Error(w, http.StatusBadRequest, ErrMissingToken)
		return
	}

	// the token always belongs to the account in the url
	pt.Account = account

	err = s.db.AddToken(r.Context(), &pt)
	if err != nil {
		com.Error(w, http.StatusInternalServerError, err)
		return
	}

	err = com.Body(w, pt, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// RemoveAccountToken removes a push token of the account in the url
func (s *Service) RemoveAccountToken(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	// parse token from url params
	token := chi.URLParam(r, "token")

	if token == "" {
		com.Error(w, http.StatusBadRequest, ErrMissingToken)
		return
	}

	err := s.db.RemoveAccountToken(r.Context(), token, account)
	if err != nil {
		com.Error(w, http.StatusInternalServerError, err)
		return
	}

	err = com.Body(w, map[string]any{}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
