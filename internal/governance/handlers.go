package governance

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	com "github.com/wehave/market/internal/common"
	"github.com/wehave/market/internal/near"
	"github.com/wehave/market/pkg/market"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrEmptyQuestion),
		errors.Is(err, ErrInvalidOption),
		errors.Is(err, near.ErrInvalidAccountID):
		return http.StatusBadRequest
	case errors.Is(err, market.ErrNotSignedIn):
		return http.StatusUnauthorized
	case errors.Is(err, ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyVoted):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// GetGov handler for the proposals of every item, with vote percentages
func (s *Service) GetGov(w http.ResponseWriter, r *http.Request) {
	govs, err := s.Aggregate(r.Context())
	if err != nil {
		com.Error(w, statusFor(err), err)
		return
	}

	err = com.BodyMultiple(w, govs, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// GetGovProposals handler for the proposals of a single item
func (s *Service) GetGovProposals(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseUint(chi.URLParam(r, "item"), 10, 64)
	if err != nil {
		com.Error(w, http.StatusBadRequest, err)
		return
	}

	g, err := s.Item(r.Context(), index)
	if err != nil {
		com.Error(w, statusFor(err), err)
		return
	}

	err = com.Body(w, g, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

type proposalRequest struct {
	Question string `json:"question"`
}

// CreateProposal handler for asking a new question to an item DAO
func (s *Service) CreateProposal(w http.ResponseWriter, r *http.Request) {
	dao := chi.URLParam(r, "dao")
	if err := near.ValidateAccountID(dao); err != nil {
		com.Error(w, http.StatusBadRequest, err)
		return
	}

	var req proposalRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		com.Error(w, http.StatusBadRequest, err)
		return
	}
	defer r.Body.Close()

	out, err := s.NewProposal(r.Context(), dao, req.Question)
	if err != nil {
		com.Error(w, statusFor(err), err)
		return
	}

	err = com.Body(w, out, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

type voteRequest struct {
	Option *int `json:"option"`
}

// CastVote handler for voting on a proposal as the signed in account
func (s *Service) CastVote(w http.ResponseWriter, r *http.Request) {
	dao := chi.URLParam(r, "dao")
	if err := near.ValidateAccountID(dao); err != nil {
		com.Error(w, http.StatusBadRequest, err)
		return
	}

	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 64)
	if err != nil {
		com.Error(w, http.StatusBadRequest, err)
		return
	}

	var req voteRequest
	err = json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		com.Error(w, http.StatusBadRequest, err)
		return
	}
	defer r.Body.Close()

	if req.Option == nil {
		com.Error(w, http.StatusBadRequest, ErrInvalidOption)
		return
	}

	out, err := s.Vote(r.Context(), dao, index, *req.Option)
	if err != nil {
		com.Error(w, statusFor(err), err)
		return
	}

	err = com.Body(w, out, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
