package snapshot

import (
	"net/http"

	com "github.com/wehave/market/internal/common"
	"github.com/wehave/market/internal/crowdfunds"
	"github.com/wehave/market/pkg/market"
)

type Session interface {
	SignedIn() bool
	AccountID() string
}

// Service answers from the snapshot kept by the refresh loop.
type Service struct {
	store   market.SnapshotStore
	session Session
}

func NewService(store market.SnapshotStore, session Session) *Service {
	return &Service{
		store:   store,
		session: session,
	}
}

// Crowdfunds returns the stored crowdfunds with the funding state of the
// current session
func (s *Service) Crowdfunds(w http.ResponseWriter, r *http.Request) {
	cfs, err := s.store.Crowdfunds(r.Context())
	if err != nil {
		com.Error(w, http.StatusInternalServerError, err)
		return
	}

	signedIn := s.session.SignedIn()
	for _, cf := range cfs {
		cf.Funding = crowdfunds.FundingStateFor(signedIn, cf.Progress, cf.Goal)
	}

	err = com.BodyMultiple(w, cfs, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// Tallies returns the stored proposal tallies with the vote of the signed in
// account, optionally of a single dao
func (s *Service) Tallies(w http.ResponseWriter, r *http.Request) {
	tallies, err := s.store.Tallies(r.Context())
	if err != nil {
		com.Error(w, http.StatusInternalServerError, err)
		return
	}

	me := s.session.AccountID()
	for _, t := range tallies {
		t.UserVote = t.VoteOf(me)
	}

	dao := r.URL.Query().Get("dao")
	if dao != "" {
		tallies = com.Filter(tallies, func(t *market.ProposalTally) bool {
			return t.DAO == dao
		})
	}

	err = com.BodyMultiple(w, tallies, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
