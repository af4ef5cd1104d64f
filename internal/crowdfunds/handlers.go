package crowdfunds

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	com "github.com/wehave/market/internal/common"
	"github.com/wehave/market/pkg/market"
)

const maxUploadSize = 10 << 20

// StatusFor maps domain errors to http status codes. Anything unknown came
// from the node or the storage service.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrMissingFields),
		errors.Is(err, ErrNoImage),
		errors.Is(err, ErrGoalReached),
		errors.Is(err, market.ErrInvalidAmount),
		errors.Is(err, com.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, market.ErrNotSignedIn):
		return http.StatusUnauthorized
	case errors.Is(err, ErrCrowdfundNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func parseIndex(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "index"), 10, 64)
}

// ListItems handler for the items minted on the items contract
func (s *Service) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.Items(r.Context())
	if err != nil {
		com.Error(w, StatusFor(err), err)
		return
	}

	err = com.BodyMultiple(w, items, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// ListCrowdfunds handler for the current campaigns
func (s *Service) ListCrowdfunds(w http.ResponseWriter, r *http.Request) {
	cfs, err := s.Crowdfunds(r.Context())
	if err != nil {
		com.Error(w, StatusFor(err), err)
		return
	}

	err = com.BodyMultiple(w, cfs, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) GetCrowdfund(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(r)
	if err != nil {
		com.Error(w, http.StatusBadRequest, err)
		return
	}

	cf, err := s.Crowdfund(r.Context(), index)
	if err != nil {
		com.Error(w, StatusFor(err), err)
		return
	}

	err = com.Body(w, cf, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// Create handler for a multipart campaign form: name, description, goal and
// an image file.
func (s *Service) Create(w http.ResponseWriter, r *http.Request) {
	err := r.ParseMultipartForm(maxUploadSize)
	if err != nil {
		com.Error(w, http.StatusBadRequest, errors.New("unable to parse form"))
		return
	}

	c := &NewCampaign{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Goal:        r.FormValue("goal"),
	}

	file, _, err := r.FormFile("image")
	if err == nil {
		defer file.Close()

		c.Picture, err = io.ReadAll(file)
		if err != nil {
			com.Error(w, http.StatusBadRequest, err)
			return
		}
	}

	res, err := s.CreateCampaign(r.Context(), c)
	if err != nil {
		com.Error(w, StatusFor(err), err)
		return
	}

	err = com.Body(w, res, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

type fundRequest struct {
	Amount market.Amount `json:"amount"`
}

func decodeFundRequest(r *http.Request) (*fundRequest, error) {
	var req fundRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return nil, err
	}
	defer r.Body.Close()

	return &req, nil
}

// Contribute handler for funding a campaign with the stablecoin
func (s *Service) Contribute(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(r)
	if err != nil {
		com.Error(w, http.StatusBadRequest, err)
		return
	}

	req, err := decodeFundRequest(r)
	if err != nil {
		com.Error(w, http.StatusBadRequest, err)
		return
	}

	out, err := s.Fund(r.Context(), index, req.Amount)
	if err != nil {
		com.Error(w, StatusFor(err), err)
		return
	}

	err = com.Body(w, out, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// PreviewFunding handler for what a contribution would do, without sending it
func (s *Service) PreviewFunding(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(r)
	if err != nil {
		com.Error(w, http.StatusBadRequest, err)
		return
	}

	req, err := decodeFundRequest(r)
	if err != nil {
		com.Error(w, http.StatusBadRequest, err)
		return
	}

	c, err := s.Preview(r.Context(), index, req.Amount)
	if err != nil {
		com.Error(w, StatusFor(err), err)
		return
	}

	err = com.Body(w, c, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// ClaimTokens handler for registering on an item token contract
func (s *Service) ClaimTokens(w http.ResponseWriter, r *http.Request) {
	prefix := chi.URLParam(r, "ft_prefix")
	if prefix == "" {
		com.Error(w, http.StatusBadRequest, errors.New("missing item token prefix"))
		return
	}

	out, err := s.Claim(r.Context(), prefix)
	if err != nil {
		com.Error(w, StatusFor(err), err)
		return
	}

	err = com.Body(w, out, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
