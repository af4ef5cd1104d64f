package crowdfunds

import (
	"context"
	"fmt"

	"github.com/wehave/market/pkg/market"
)

type TokenReader interface {
	SingleTokenFromNFT(ctx context.Context, tokenID uint64) (*market.Token, error)
}

// Items returns the tokens minted in the scan range. Absent ids are skipped.
func (s *Service) Items(ctx context.Context) ([]*market.Token, error) {
	return ScanItems(ctx, s.chain, s.scan)
}

// ScanItems probes every token id of r in order and stops at the first error.
func ScanItems(ctx context.Context, tr TokenReader, r ScanRange) ([]*market.Token, error) {
	items := []*market.Token{}

	if r.From > r.To {
		return items, nil
	}

	for id := r.From; ; id++ {
		t, err := tr.SingleTokenFromNFT(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", id, err)
		}

		if t != nil {
			items = append(items, t)
		}

		if id == r.To {
			break
		}
	}

	return items, nil
}
