package version

import (
	"net/http"

	"github.com/wehave/market/internal/common"
	"github.com/wehave/market/pkg/market"
)

type Service struct{}

func NewService() *Service {
	return &Service{}
}

type response struct {
	Version string `json:"version"`
}

// Current returns the current version of the API
func (s *Service) Current(w http.ResponseWriter, r *http.Request) {
	err := common.Body(w, &response{Version: market.Version}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
