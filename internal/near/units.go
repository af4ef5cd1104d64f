package near

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wehave/market/pkg/market"
)

const (
	TGas uint64 = 1_000_000_000_000

	// DefaultGas is attached to calls that do not ask for more.
	DefaultGas = 30 * TGas
	// MaxGas is the most a single function call may attach.
	MaxGas = 300 * TGas

	NearNominationExp = 24
)

var (
	NoDeposit  = market.NewAmount(0)
	OneYocto   = market.NewAmount(1)
	nomination = decimal.New(1, NearNominationExp)
)

// ParseNear converts a human amount of NEAR ("0.00125") to yoctoNEAR.
func ParseNear(s string) (market.Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return market.Amount{}, fmt.Errorf("%w: %q", market.ErrInvalidAmount, s)
	}

	if d.IsNegative() {
		return market.Amount{}, fmt.Errorf("%w: %q is negative", market.ErrInvalidAmount, s)
	}

	y := d.Mul(nomination)
	if !y.Equal(y.Truncate(0)) {
		return market.Amount{}, fmt.Errorf("%w: %q has more than %d decimals", market.ErrInvalidAmount, s, NearNominationExp)
	}

	return market.ParseAmount(y.String())
}

// FormatNear renders a yoctoNEAR amount in NEAR.
func FormatNear(a market.Amount) string {
	return a.Decimal().Div(nomination).String()
}
