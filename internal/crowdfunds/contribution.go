package crowdfunds

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wehave/market/pkg/market"
)

// Contribution is what a transfer of Amount does to a campaign, computed the
// way the crowdfund contract settles it.
type Contribution struct {
	Amount        market.Amount `json:"amount"`
	FeePercentage float64       `json:"fee_percentage"`
	Fee           market.Amount `json:"fee"`
	Netto         market.Amount `json:"netto"`
	Refund        market.Amount `json:"refund"`
	RefundFee     market.Amount `json:"refund_fee"`
	Accepted      market.Amount `json:"accepted"`
	GoalReached   bool          `json:"goal_reached"`
}

// ratioPrecision is the number of decimal places the contract keeps when it
// divides.
const ratioPrecision = 28

func toAmount(d decimal.Decimal) market.Amount {
	return market.AmountFromBig(d.Truncate(0).BigInt())
}

// PreviewContribution splits amount into fee and netto and, when the netto
// overshoots the goal, works out the refunded part. The refunded fee follows
// the contract: fee * (overshoot / netto) / 100, truncated.
func PreviewContribution(progress, goal, amount market.Amount, feePercentage float64) (*Contribution, error) {
	if progress.Cmp(goal) >= 0 {
		return nil, ErrGoalReached
	}

	if amount.IsZero() {
		return nil, fmt.Errorf("%w: amount must be positive", market.ErrInvalidAmount)
	}

	if feePercentage < 0 || feePercentage > 100 {
		return nil, fmt.Errorf("fee percentage %v out of range", feePercentage)
	}

	amt := amount.Decimal()
	fee := amt.Mul(decimal.NewFromFloat(feePercentage).Div(decimal.NewFromInt(100))).Truncate(0)
	netto := amt.Sub(fee)

	c := &Contribution{
		Amount:        amount,
		FeePercentage: feePercentage,
		Fee:           toAmount(fee),
		Netto:         toAmount(netto),
		Refund:        market.NewAmount(0),
		RefundFee:     market.NewAmount(0),
		Accepted:      amount,
	}

	p, g := progress.Decimal(), goal.Decimal()
	if p.Add(netto).LessThan(g) {
		return c, nil
	}

	c.GoalReached = true

	nettoLeft := p.Add(netto).Sub(g)
	feeLeft := decimal.Zero
	if netto.IsPositive() {
		feeLeft = fee.Mul(nettoLeft.DivRound(netto, ratioPrecision).Shift(-2)).Truncate(0)
	}

	refund := nettoLeft.Add(feeLeft)

	c.Refund = toAmount(refund)
	c.RefundFee = toAmount(feeLeft)
	c.Accepted = toAmount(amt.Sub(refund))

	return c, nil
}

// Preview reads the campaign state and previews a contribution of amount.
func (s *Service) Preview(ctx context.Context, index uint64, amount market.Amount) (*Contribution, error) {
	cf, err := s.Crowdfund(ctx, index)
	if err != nil {
		return nil, err
	}

	var progress market.Amount
	if cf.Progress != nil {
		progress = *cf.Progress
	}

	return PreviewContribution(progress, cf.Goal, amount, *cf.FeePercentage)
}
