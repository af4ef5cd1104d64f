package market

import (
	"context"
	"time"
)

// MediaStore persists campaign media on content addressed storage.
type MediaStore interface {
	StoreCampaignMedia(ctx context.Context, name, description string, picture []byte) (*Media, error)
	RemoveCampaignMedia(ctx context.Context, cid string) error
}

// SnapshotStore keeps the latest view of crowdfunds and proposal tallies so
// that the API can answer without a round trip to the chain.
type SnapshotStore interface {
	SaveCrowdfunds(ctx context.Context, cfs []*Crowdfund) error
	Crowdfunds(ctx context.Context) ([]*Crowdfund, error)
	SaveTallies(ctx context.Context, tallies []*ProposalTally) error
	Tallies(ctx context.Context) ([]*ProposalTally, error)
}

type PushToken struct {
	Token     string    `json:"token"`
	Account   string    `json:"account"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PushTokenStore interface {
	AddToken(ctx context.Context, p *PushToken) error
	RemoveAccountToken(ctx context.Context, token, account string) error
	RemoveToken(ctx context.Context, token string) error
	Tokens(ctx context.Context) ([]*PushToken, error)
}

type WebhookMessager interface {
	Notify(ctx context.Context, message string) error
	NotifyError(ctx context.Context, errorMessage error) error
}
