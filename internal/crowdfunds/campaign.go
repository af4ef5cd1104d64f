package crowdfunds

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wehave/market/pkg/market"
	"go.uber.org/zap"
)

// Validation errors are shown to the user verbatim.
var (
	ErrMissingFields = errors.New("Not all crowdfund values have been filled.")
	ErrNoImage       = errors.New("You did not upload a picture.")
)

// AccountName derives the item account name from the campaign name.
func AccountName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "")
}

type NewCampaign struct {
	Name        string
	Description string
	Goal        string
	Picture     []byte
}

// Validate checks the form without touching the network.
func (c *NewCampaign) Validate() (market.Amount, error) {
	if c.Name == "" || c.Description == "" || AccountName(c.Name) == "" || c.Goal == "" {
		return market.Amount{}, ErrMissingFields
	}

	goal, err := market.ParseAmount(strings.TrimSpace(c.Goal))
	if err != nil {
		return market.Amount{}, err
	}

	if goal.IsZero() {
		return market.Amount{}, ErrMissingFields
	}

	if len(c.Picture) == 0 {
		return market.Amount{}, ErrNoImage
	}

	return goal, nil
}

type CampaignResult struct {
	Message string               `json:"message"`
	Media   *market.Media        `json:"media"`
	Outcome *market.TxOutcome    `json:"outcome"`
	Item    market.TokenMetadata `json:"item"`
}

// CreateCampaign stores the campaign media and opens the crowdfund on chain.
// Media of a campaign that could not be created is unpinned again.
func (s *Service) CreateCampaign(ctx context.Context, c *NewCampaign) (*CampaignResult, error) {
	goal, err := c.Validate()
	if err != nil {
		return nil, err
	}

	if !s.chain.SignedIn() {
		return nil, market.ErrNotSignedIn
	}

	media, err := s.media.StoreCampaignMedia(ctx, c.Name, c.Description, c.Picture)
	if err != nil {
		return nil, fmt.Errorf("store campaign media: %w", err)
	}

	accountName := AccountName(c.Name)

	out, err := s.chain.CreateCrowdfund(ctx, c.Name, accountName, c.Description, goal, media.ImageURL, media.MetadataURL)
	if err != nil {
		if rerr := s.media.RemoveCampaignMedia(ctx, media.CID); rerr != nil {
			s.log.Warn("could not remove campaign media", zap.String("cid", media.CID), zap.Error(rerr))
		}
		return nil, err
	}

	s.log.Info("crowdfund created", zap.String("name", c.Name), zap.String("account", accountName), zap.String("cid", media.CID))

	return &CampaignResult{
		Message: MsgCreatedSuccess,
		Media:   media,
		Outcome: out,
		Item: market.TokenMetadata{
			Title:       c.Name,
			Description: c.Description,
			Extra:       accountName,
			Media:       media.ImageURL,
			Reference:   media.MetadataURL,
		},
	}, nil
}
