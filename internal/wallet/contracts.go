package wallet

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/wehave/market/internal/near"
	"github.com/wehave/market/pkg/market"
)

// StorageDepositAmount registers an account on an item token contract,
// 0.00125 NEAR.
var StorageDepositAmount = mustAmount("1250000000000000000000")

func mustAmount(s string) market.Amount {
	a, err := market.ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// crowdfunds

// CreateCrowdfund opens a new campaign. The media and metadata are expected
// to be stored already.
func (w *Wallet) CreateCrowdfund(ctx context.Context, name, accountName, description string, goal market.Amount, imgURL, metadataURL string) (*market.TxOutcome, error) {
	return w.CallMethod(ctx, CallRequest{
		ContractID: w.Contracts().Crowdfund,
		Method:     "new_item",
		Args: map[string]any{
			"item_metadata": &market.TokenMetadata{
				Title:       name,
				Description: description,
				Extra:       accountName,
				Media:       imgURL,
				Reference:   metadataURL,
			},
			// new_item takes a raw u128, sent as a JSON number
			"goal": json.Number(goal.String()),
		},
	})
}

func (w *Wallet) CurrentCrowdfunds(ctx context.Context) ([]market.TokenMetadata, error) {
	var items []market.TokenMetadata
	err := w.ViewMethod(ctx, w.Contracts().Crowdfund, "get_current_items", nil, &items)
	return items, err
}

func (w *Wallet) CrowdfundProgress(ctx context.Context, itemIndex uint64) (market.Amount, error) {
	var a market.Amount
	err := w.ViewMethod(ctx, w.Contracts().Crowdfund, "get_crowdfund_progress", map[string]any{"item_index": itemIndex}, &a)
	return a, err
}

func (w *Wallet) CrowdfundGoal(ctx context.Context, itemIndex uint64) (market.Amount, error) {
	var a market.Amount
	err := w.ViewMethod(ctx, w.Contracts().Crowdfund, "get_crowdfund_goal", map[string]any{"item_index": itemIndex}, &a)
	return a, err
}

func (w *Wallet) CrowdfundFeePercentage(ctx context.Context, itemIndex uint64) (float64, error) {
	var pct float64
	err := w.ViewMethod(ctx, w.Contracts().Crowdfund, "get_crowdfund_fee_percentage", map[string]any{"item_index": itemIndex}, &pct)
	return pct, err
}

// FundUSDC transfers amount of the stablecoin to the crowdfund contract. The
// item index travels in msg.
func (w *Wallet) FundUSDC(ctx context.Context, itemIndex uint64, amount market.Amount) (*market.TxOutcome, error) {
	c := w.Contracts()

	return w.CallMethod(ctx, CallRequest{
		ContractID: c.USDC,
		Method:     "ft_transfer_call",
		Args: map[string]any{
			"receiver_id": c.Crowdfund,
			"amount":      amount,
			"memo":        "funding",
			"msg":         strconv.FormatUint(itemIndex, 10),
		},
		Gas:     near.MaxGas,
		Deposit: &near.OneYocto,
	})
}

// items

func (w *Wallet) SingleTokenFromNFT(ctx context.Context, tokenID uint64) (*market.Token, error) {
	var t *market.Token
	err := w.ViewMethod(ctx, w.Contracts().Items, "nft_token", map[string]any{"token_id": strconv.FormatUint(tokenID, 10)}, &t)
	return t, err
}

// item tokens

// ClaimTokens registers the signed in account on the item token contract
// <prefix>.<items contract> so it can receive its shares.
func (w *Wallet) ClaimTokens(ctx context.Context, ftAccountPrefix string) (*market.TxOutcome, error) {
	account := w.AccountID()
	if account == "" {
		return nil, ErrNotSignedIn
	}

	deposit := StorageDepositAmount

	return w.CallMethod(ctx, CallRequest{
		ContractID: ftAccountPrefix + "." + w.Contracts().Items,
		Method:     "storage_deposit",
		Args:       map[string]any{"account_id": account},
		Gas:        near.MaxGas,
		Deposit:    &deposit,
	})
}

func (w *Wallet) FTTotalSupply(ctx context.Context, contract string) (market.Amount, error) {
	var a market.Amount
	err := w.ViewMethod(ctx, contract, "ft_total_supply", nil, &a)
	return a, err
}

func (w *Wallet) FTUserBalance(ctx context.Context, contract, user string) (market.Amount, error) {
	var a market.Amount
	err := w.ViewMethod(ctx, contract, "ft_balance_of", map[string]any{"account_id": user}, &a)
	return a, err
}

// governance

// Proposals returns the proposals of a DAO with their index set.
func (w *Wallet) Proposals(ctx context.Context, contract string) ([]market.Proposal, error) {
	var ps []market.Proposal
	if err := w.ViewMethod(ctx, contract, "get_proposals", nil, &ps); err != nil {
		return nil, err
	}

	for i := range ps {
		ps[i].Index = uint64(i)
	}

	return ps, nil
}

func (w *Wallet) ProposalVotes(ctx context.Context, contract string, proposalIndex uint64) ([]market.Vote, error) {
	var votes []market.Vote
	err := w.ViewMethod(ctx, contract, "get_proposal_votes", map[string]any{"proposal_index": proposalIndex}, &votes)
	return votes, err
}

func (w *Wallet) CreateProposal(ctx context.Context, contract, question string, options []string) (*market.TxOutcome, error) {
	return w.CallMethod(ctx, CallRequest{
		ContractID: contract,
		Method:     "new_proposal",
		Args:       map[string]any{"question": question, "options": options},
	})
}

func (w *Wallet) VoteForProposal(ctx context.Context, contract string, proposalIndex uint64, optionIndex int) (*market.TxOutcome, error) {
	return w.CallMethod(ctx, CallRequest{
		ContractID: contract,
		Method:     "cast_vote",
		Args:       map[string]any{"proposal_index": proposalIndex, "answer_index": optionIndex},
		Gas:        near.MaxGas,
	})
}
