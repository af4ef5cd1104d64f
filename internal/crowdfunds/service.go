package crowdfunds

import (
	"context"

	"github.com/wehave/market/pkg/market"
	"go.uber.org/zap"
)

// Chain is the part of the wallet the marketplace needs.
type Chain interface {
	SignedIn() bool
	AccountID() string

	TokenReader

	CurrentCrowdfunds(ctx context.Context) ([]market.TokenMetadata, error)
	CrowdfundProgress(ctx context.Context, itemIndex uint64) (market.Amount, error)
	CrowdfundGoal(ctx context.Context, itemIndex uint64) (market.Amount, error)
	CrowdfundFeePercentage(ctx context.Context, itemIndex uint64) (float64, error)

	CreateCrowdfund(ctx context.Context, name, accountName, description string, goal market.Amount, imgURL, metadataURL string) (*market.TxOutcome, error)
	FundUSDC(ctx context.Context, itemIndex uint64, amount market.Amount) (*market.TxOutcome, error)
	ClaimTokens(ctx context.Context, ftAccountPrefix string) (*market.TxOutcome, error)
}

// ScanRange is the inclusive range of token ids probed for items. The items
// contract has no way to list its tokens.
type ScanRange struct {
	From uint64
	To   uint64
}

var DefaultScanRange = ScanRange{From: 0, To: 10}

type Service struct {
	chain Chain
	media market.MediaStore
	scan  ScanRange
	log   *zap.Logger
}

func NewService(chain Chain, media market.MediaStore, scan ScanRange, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		chain: chain,
		media: media,
		scan:  scan,
		log:   log.Named("crowdfunds"),
	}
}
