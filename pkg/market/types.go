package market

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TokenMetadata follows the NEP-177 token metadata layout.
type TokenMetadata struct {
	Title         string  `json:"title,omitempty"`
	Description   string  `json:"description,omitempty"`
	Media         string  `json:"media,omitempty"`
	MediaHash     string  `json:"media_hash,omitempty"`
	Copies        *uint64 `json:"copies,omitempty"`
	IssuedAt      string  `json:"issued_at,omitempty"`
	ExpiresAt     string  `json:"expires_at,omitempty"`
	StartsAt      string  `json:"starts_at,omitempty"`
	UpdatedAt     string  `json:"updated_at,omitempty"`
	Extra         string  `json:"extra,omitempty"`
	Reference     string  `json:"reference,omitempty"`
	ReferenceHash string  `json:"reference_hash,omitempty"`
}

// Token is an item minted on the items collection. The owner of an item token
// is the fungible token account that represents shares in the item.
type Token struct {
	TokenID            string            `json:"token_id"`
	OwnerID            string            `json:"owner_id"`
	Metadata           *TokenMetadata    `json:"metadata,omitempty"`
	ApprovedAccountIDs map[string]uint64 `json:"approved_account_ids,omitempty"`
}

// DAOAccount returns the account of the governance contract of the item.
func (t *Token) DAOAccount() string {
	return "dao-" + t.OwnerID
}

type FundingState struct {
	Enabled     bool   `json:"enabled"`
	Message     string `json:"message"`
	GoalReached bool   `json:"goal_reached"`
}

type Crowdfund struct {
	Index    uint64        `json:"index"`
	Metadata TokenMetadata `json:"metadata"`
	Goal     Amount        `json:"goal"`
	Progress *Amount       `json:"progress,omitempty"`

	FeePercentage *float64 `json:"fee_percentage,omitempty"`

	Funding   *FundingState `json:"funding,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// GoalReached reports whether the progress is known and equal to the goal.
func (c *Crowdfund) GoalReached() bool {
	return c.Progress != nil && c.Progress.Cmp(c.Goal) == 0
}

var (
	ErrInvalidRecord = errors.New("invalid record")
	ErrNotSignedIn   = errors.New("not signed in")
)

// Proposal is a governance question. Contracts return it as a bare question,
// a [question, options] tuple or an object.
type Proposal struct {
	Index    uint64   `json:"index"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

func (p *Proposal) UnmarshalJSON(b []byte) error {
	var question string
	if err := json.Unmarshal(b, &question); err == nil {
		p.Question = question
		return nil
	}

	var tuple []json.RawMessage
	if err := json.Unmarshal(b, &tuple); err == nil {
		if len(tuple) == 0 {
			return fmt.Errorf("%w: empty proposal", ErrInvalidRecord)
		}

		if err := json.Unmarshal(tuple[0], &p.Question); err != nil {
			return fmt.Errorf("%w: proposal question: %v", ErrInvalidRecord, err)
		}

		if len(tuple) > 1 {
			if err := json.Unmarshal(tuple[1], &p.Options); err != nil {
				return fmt.Errorf("%w: proposal options: %v", ErrInvalidRecord, err)
			}
		}

		return nil
	}

	type proposal Proposal
	var obj proposal
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	*p = Proposal(obj)
	return nil
}

// Vote is a single vote cast on a proposal, returned as [account, option].
type Vote struct {
	AccountID string `json:"account_id"`
	Option    int    `json:"option"`
}

func (v *Vote) UnmarshalJSON(b []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(b, &tuple); err == nil {
		if len(tuple) != 2 {
			return fmt.Errorf("%w: vote must have 2 elements, got %d", ErrInvalidRecord, len(tuple))
		}

		if err := json.Unmarshal(tuple[0], &v.AccountID); err != nil {
			return fmt.Errorf("%w: vote account: %v", ErrInvalidRecord, err)
		}

		if err := json.Unmarshal(tuple[1], &v.Option); err != nil {
			return fmt.Errorf("%w: vote option: %v", ErrInvalidRecord, err)
		}

		return nil
	}

	type vote Vote
	var obj vote
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	*v = Vote(obj)
	return nil
}

// ProposalTally holds the vote weight per option of a proposal, in percent of
// the item token supply.
type ProposalTally struct {
	ItemIndex     uint64            `json:"item_index"`
	DAO           string            `json:"dao"`
	ProposalIndex uint64            `json:"proposal_index"`
	Question      string            `json:"question"`
	Options       []string          `json:"options"`
	Percentages   []decimal.Decimal `json:"percentages"`
	Voters        int               `json:"voters"`
	UserVote      *int              `json:"user_vote,omitempty"`
	UpdatedAt     time.Time         `json:"updated_at"`

	// Ballots is the counted option of every voter.
	Ballots map[string]int `json:"-"`
}

// VoteOf returns the counted option of account, or nil if it did not vote.
func (t *ProposalTally) VoteOf(account string) *int {
	if account == "" {
		return nil
	}

	opt, ok := t.Ballots[account]
	if !ok {
		return nil
	}
	return &opt
}

// Total returns the sum of all option weights.
func (t *ProposalTally) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range t.Percentages {
		total = total.Add(p)
	}
	return total
}

type Session struct {
	Network    string    `json:"network"`
	AccountID  string    `json:"account_id"`
	PublicKey  string    `json:"public_key"`
	SignedInAt time.Time `json:"signed_in_at"`
}

// Media are the retrieval urls of a stored campaign directory.
type Media struct {
	CID         string `json:"cid"`
	ImageURL    string `json:"image_url"`
	MetadataURL string `json:"metadata_url"`
}
