package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jpillora/backoff"
	"github.com/wehave/market/internal/governance"
	"github.com/wehave/market/pkg/market"
	"go.uber.org/zap"
)

type ErrRefresh error

var (
	ErrRefreshRecoverable ErrRefresh = errors.New("error refreshing recoverable") // the node failed, the next pass may succeed
)

type Crowdfunds interface {
	Crowdfunds(ctx context.Context) ([]*market.Crowdfund, error)
}

type Governance interface {
	Aggregate(ctx context.Context) ([]*governance.ItemGovernance, error)
}

type Queue interface {
	Enqueue(message market.Message)
}

// Refresher keeps the stored snapshot of the marketplace up to date.
type Refresher struct {
	cfs    Crowdfunds
	gov    Governance
	store  market.SnapshotStore
	tokens market.PushTokenStore
	queue  Queue

	backoff *backoff.Backoff
	log     *zap.Logger
}

// New creates a refresher. tokens and queue may be nil, no notifications are
// sent then.
func New(cfs Crowdfunds, gov Governance, store market.SnapshotStore, tokens market.PushTokenStore, queue Queue, log *zap.Logger) *Refresher {
	return &Refresher{
		cfs:    cfs,
		gov:    gov,
		store:  store,
		tokens: tokens,
		queue:  queue,
		backoff: &backoff.Backoff{
			Min:    250 * time.Millisecond,
			Max:    time.Minute,
			Factor: 2,
			Jitter: true,
		},
		log: log.Named("refresh"),
	}
}

// Start runs a single pass: fetch crowdfunds and tallies, store them and
// announce the crowdfunds that reached their goal since the last pass.
func (r *Refresher) Start(ctx context.Context) error {
	previous, err := r.store.Crowdfunds(ctx)
	if err != nil {
		return err
	}

	cfs, err := r.cfs.Crowdfunds(ctx)
	if err != nil {
		return r.recoverable(ctx, err)
	}

	govs, err := r.gov.Aggregate(ctx)
	if err != nil {
		return r.recoverable(ctx, err)
	}

	tallies := []*market.ProposalTally{}
	for _, g := range govs {
		tallies = append(tallies, g.Proposals...)
	}

	err = r.store.SaveCrowdfunds(ctx, cfs)
	if err != nil {
		return err
	}

	err = r.store.SaveTallies(ctx, tallies)
	if err != nil {
		return err
	}

	reached := GoalsReached(previous, cfs)
	if len(reached) > 0 {
		r.notify(ctx, reached)
	}

	r.log.Debug("snapshot refreshed", zap.Int("crowdfunds", len(cfs)), zap.Int("tallies", len(tallies)))

	return nil
}

// Background refreshes every syncrate seconds until ctx is done or a pass
// fails for a reason other than the node.
func (r *Refresher) Background(ctx context.Context, syncrate int) error {
	for {
		err := r.Start(ctx)
		if err != nil {
			// check if the error is recoverable
			if errors.Is(err, ErrRefreshRecoverable) {
				wait := r.backoff.Duration()
				r.log.Warn("recoverable error", zap.Error(err), zap.Duration("retry_in", wait))

				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(wait):
				}
				continue
			}
			return err
		}

		r.backoff.Reset()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(syncrate) * time.Second):
		}
	}
}

func (r *Refresher) recoverable(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %v", ErrRefreshRecoverable, err)
}

func (r *Refresher) notify(ctx context.Context, reached []*market.Crowdfund) {
	if r.tokens == nil || r.queue == nil {
		return
	}

	tokens, err := r.tokens.Tokens(ctx)
	if err != nil {
		r.log.Error("failed to load push tokens", zap.Error(err))
		return
	}

	if len(tokens) == 0 {
		return
	}

	for _, cf := range reached {
		r.log.Info("goal reached", zap.Uint64("index", cf.Index), zap.String("title", cf.Metadata.Title))
		r.queue.Enqueue(*market.NewGoalReachedMessage(tokens, cf))
	}
}

// GoalsReached returns the crowdfunds of current that were known and still
// open in previous but have reached their goal now.
func GoalsReached(previous, current []*market.Crowdfund) []*market.Crowdfund {
	open := map[uint64]string{}
	for _, cf := range previous {
		if !cf.GoalReached() {
			open[cf.Index] = cf.Metadata.Title
		}
	}

	reached := []*market.Crowdfund{}
	for _, cf := range current {
		title, ok := open[cf.Index]
		// indexes are positions in the current list, match the title as well
		if !ok || title != cf.Metadata.Title {
			continue
		}

		if cf.GoalReached() {
			reached = append(reached, cf)
		}
	}

	return reached
}
