package governance

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wehave/market/internal/crowdfunds"
	"github.com/wehave/market/pkg/market"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// percentages are truncated, never rounded up, so a tally cannot exceed 100
const percentagePlaces = 4

var (
	DefaultOptions = []string{"yes", "no"}

	ErrEmptyQuestion = errors.New("question cannot be empty")
	ErrInvalidOption = errors.New("invalid option")
	ErrAlreadyVoted  = errors.New("already voted for this option")

	// 100 percent times 10^percentagePlaces
	weightScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(percentagePlaces+2), nil)
)

// Chain is the part of the wallet governance needs.
type Chain interface {
	crowdfunds.TokenReader

	AccountID() string

	Proposals(ctx context.Context, contract string) ([]market.Proposal, error)
	ProposalVotes(ctx context.Context, contract string, proposalIndex uint64) ([]market.Vote, error)
	FTTotalSupply(ctx context.Context, contract string) (market.Amount, error)
	FTUserBalance(ctx context.Context, contract, user string) (market.Amount, error)

	CreateProposal(ctx context.Context, contract, question string, options []string) (*market.TxOutcome, error)
	VoteForProposal(ctx context.Context, contract string, proposalIndex uint64, optionIndex int) (*market.TxOutcome, error)
}

// ItemGovernance groups the proposals of the DAO of one item.
type ItemGovernance struct {
	ItemIndex uint64                  `json:"item_index"`
	Token     *market.Token           `json:"token"`
	FTAccount string                  `json:"ft_account"`
	DAO       string                  `json:"dao"`
	Supply    market.Amount           `json:"supply"`
	Proposals []*market.ProposalTally `json:"proposals"`
}

type Service struct {
	chain Chain
	scan  crowdfunds.ScanRange
	limit int
	log   *zap.Logger
}

// NewService creates the governance service. limit bounds the balance lookups
// in flight per proposal, 1 fetches them one by one.
func NewService(chain Chain, scan crowdfunds.ScanRange, limit int, log *zap.Logger) *Service {
	if limit < 1 {
		limit = 1
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		chain: chain,
		scan:  scan,
		limit: limit,
		log:   log.Named("governance"),
	}
}

// Aggregate computes the tallies of every proposal of every item in the scan
// range. Everything is fetched again on each call.
func (s *Service) Aggregate(ctx context.Context) ([]*ItemGovernance, error) {
	items, err := crowdfunds.ScanItems(ctx, s.chain, s.scan)
	if err != nil {
		return nil, err
	}

	govs := make([]*ItemGovernance, 0, len(items))
	for _, t := range items {
		g, err := s.ItemProposals(ctx, t)
		if err != nil {
			return nil, err
		}

		govs = append(govs, g)
	}

	return govs, nil
}

// Item returns the governance of the item with token id index.
func (s *Service) Item(ctx context.Context, index uint64) (*ItemGovernance, error) {
	t, err := s.chain.SingleTokenFromNFT(ctx, index)
	if err != nil {
		return nil, err
	}

	if t == nil {
		return nil, fmt.Errorf("%w: item %d", ErrItemNotFound, index)
	}

	return s.ItemProposals(ctx, t)
}

var ErrItemNotFound = errors.New("item not found")

func (s *Service) ItemProposals(ctx context.Context, t *market.Token) (*ItemGovernance, error) {
	index, err := strconv.ParseUint(t.TokenID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: token id %q", market.ErrInvalidRecord, t.TokenID)
	}

	g := &ItemGovernance{
		ItemIndex: index,
		Token:     t,
		FTAccount: t.OwnerID,
		DAO:       t.DAOAccount(),
		Proposals: []*market.ProposalTally{},
	}

	proposals, err := s.chain.Proposals(ctx, g.DAO)
	if err != nil {
		return nil, err
	}

	if len(proposals) == 0 {
		return g, nil
	}

	g.Supply, err = s.chain.FTTotalSupply(ctx, g.FTAccount)
	if err != nil {
		return nil, err
	}

	for _, p := range proposals {
		tally, err := s.Tally(ctx, g, p)
		if err != nil {
			return nil, err
		}

		g.Proposals = append(g.Proposals, tally)
	}

	return g, nil
}

// Tally weighs every vote on p by the voter's share of the item token supply,
// balance / supply * 100, and sums the weights per option. A voter counts
// once, with their last vote.
func (s *Service) Tally(ctx context.Context, g *ItemGovernance, p market.Proposal) (*market.ProposalTally, error) {
	votes, err := s.chain.ProposalVotes(ctx, g.DAO, p.Index)
	if err != nil {
		return nil, err
	}

	options := p.Options
	if len(options) == 0 {
		options = DefaultOptions
	}

	tally := &market.ProposalTally{
		ItemIndex:     g.ItemIndex,
		DAO:           g.DAO,
		ProposalIndex: p.Index,
		Question:      p.Question,
		Options:       options,
		Percentages:   make([]decimal.Decimal, len(options)),
		UpdatedAt:     time.Now().UTC(),
	}
	for i := range tally.Percentages {
		tally.Percentages[i] = decimal.Zero
	}

	latest := map[string]int{}
	voters := []string{}
	for _, v := range votes {
		if v.Option < 0 || v.Option >= len(options) {
			s.log.Warn("vote for unknown option", zap.String("dao", g.DAO), zap.Uint64("proposal", p.Index), zap.String("account", v.AccountID), zap.Int("option", v.Option))
			continue
		}

		if _, ok := latest[v.AccountID]; !ok {
			voters = append(voters, v.AccountID)
		}
		latest[v.AccountID] = v.Option
	}

	tally.Voters = len(voters)
	tally.Ballots = latest
	tally.UserVote = tally.VoteOf(s.chain.AccountID())

	if g.Supply.IsZero() || len(voters) == 0 {
		return tally, nil
	}

	balances := make([]market.Amount, len(voters))

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.limit)

	for i, voter := range voters {
		i, voter := i, voter
		eg.Go(func() error {
			b, err := s.chain.FTUserBalance(egctx, g.FTAccount, voter)
			if err != nil {
				return fmt.Errorf("balance of %s: %w", voter, err)
			}
			balances[i] = b
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	supply := g.Supply.Big()
	for i, voter := range voters {
		q := new(big.Int).Mul(balances[i].Big(), weightScale)
		q.Quo(q, supply)

		weight := decimal.NewFromBigInt(q, -percentagePlaces)
		opt := latest[voter]
		tally.Percentages[opt] = tally.Percentages[opt].Add(weight)
	}

	return tally, nil
}

// NewProposal asks a yes or no question to the DAO of an item.
func (s *Service) NewProposal(ctx context.Context, dao, question string) (*market.TxOutcome, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	return s.chain.CreateProposal(ctx, dao, question, DefaultOptions)
}

// Vote casts option on a proposal. Voting again for the option the account
// already counts for is rejected before any transaction is sent.
func (s *Service) Vote(ctx context.Context, dao string, proposalIndex uint64, option int) (*market.TxOutcome, error) {
	if option < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOption, option)
	}

	if me := s.chain.AccountID(); me != "" {
		votes, err := s.chain.ProposalVotes(ctx, dao, proposalIndex)
		if err != nil {
			return nil, err
		}

		current := -1
		for _, v := range votes {
			if v.AccountID == me {
				current = v.Option
			}
		}

		if current == option {
			return nil, fmt.Errorf("%w: %d", ErrAlreadyVoted, option)
		}
	}

	return s.chain.VoteForProposal(ctx, dao, proposalIndex, option)
}
