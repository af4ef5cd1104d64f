package crowdfunds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wehave/market/pkg/market"
	"go.uber.org/zap"
)

var (
	ErrCrowdfundNotFound = errors.New("crowdfund not found")
	ErrGoalReached       = errors.New("The goal has already been reached for this item.")
)

// Crowdfunds lists the current campaigns with their progress, goal and the
// funding state for the current session. Lookups run one after the other.
func (s *Service) Crowdfunds(ctx context.Context) ([]*market.Crowdfund, error) {
	metas, err := s.chain.CurrentCrowdfunds(ctx)
	if err != nil {
		return nil, err
	}

	signedIn := s.chain.SignedIn()

	cfs := make([]*market.Crowdfund, 0, len(metas))
	for i, meta := range metas {
		cf, err := s.load(ctx, uint64(i), meta, signedIn)
		if err != nil {
			return nil, err
		}

		cfs = append(cfs, cf)
	}

	return cfs, nil
}

// Crowdfund returns a single campaign including its fee percentage.
func (s *Service) Crowdfund(ctx context.Context, index uint64) (*market.Crowdfund, error) {
	metas, err := s.chain.CurrentCrowdfunds(ctx)
	if err != nil {
		return nil, err
	}

	if index >= uint64(len(metas)) {
		return nil, fmt.Errorf("%w: %d", ErrCrowdfundNotFound, index)
	}

	cf, err := s.load(ctx, index, metas[index], s.chain.SignedIn())
	if err != nil {
		return nil, err
	}

	fee, err := s.chain.CrowdfundFeePercentage(ctx, index)
	if err != nil {
		return nil, err
	}

	cf.FeePercentage = &fee

	return cf, nil
}

func (s *Service) load(ctx context.Context, index uint64, meta market.TokenMetadata, signedIn bool) (*market.Crowdfund, error) {
	progress, err := s.chain.CrowdfundProgress(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("progress of crowdfund %d: %w", index, err)
	}

	goal, err := s.chain.CrowdfundGoal(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("goal of crowdfund %d: %w", index, err)
	}

	return &market.Crowdfund{
		Index:     index,
		Metadata:  meta,
		Goal:      goal,
		Progress:  &progress,
		Funding:   FundingStateFor(signedIn, &progress, goal),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Fund contributes amount of the stablecoin to a campaign. It is refused when
// the goal was reached already.
func (s *Service) Fund(ctx context.Context, index uint64, amount market.Amount) (*market.TxOutcome, error) {
	if amount.IsZero() {
		return nil, fmt.Errorf("%w: amount must be positive", market.ErrInvalidAmount)
	}

	cf, err := s.Crowdfund(ctx, index)
	if err != nil {
		return nil, err
	}

	if cf.GoalReached() {
		return nil, ErrGoalReached
	}

	s.log.Info("funding crowdfund", zap.Uint64("index", index), zap.Stringer("amount", amount), zap.String("account", s.chain.AccountID()))

	return s.chain.FundUSDC(ctx, index, amount)
}

// Claim registers the signed in account on the item token contract so that
// its share is paid out.
func (s *Service) Claim(ctx context.Context, ftAccountPrefix string) (*market.TxOutcome, error) {
	return s.chain.ClaimTokens(ctx, ftAccountPrefix)
}
