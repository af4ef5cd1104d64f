package market

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Amount is an unsigned 128 bit quantity (token balances, goals, yoctoNEAR).
// Contracts return it either as a bare JSON number or as a decimal string.
type Amount struct {
	v *big.Int
}

func NewAmount(x uint64) Amount {
	return Amount{v: new(big.Int).SetUint64(x)}
}

func AmountFromBig(b *big.Int) Amount {
	if b == nil {
		return Amount{}
	}
	return Amount{v: new(big.Int).Set(b)}
}

// ParseAmount parses a base 10 unsigned integer.
func ParseAmount(s string) (Amount, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	if v.BitLen() > 128 {
		return Amount{}, fmt.Errorf("%w: %q overflows u128", ErrInvalidAmount, s)
	}

	return Amount{v: v}, nil
}

func (a Amount) Big() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.v)
}

func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(a.Big(), 0)
}

func (a Amount) IsZero() bool {
	return a.v == nil || a.v.Sign() == 0
}

func (a Amount) Cmp(b Amount) int {
	return a.Big().Cmp(b.Big())
}

func (a Amount) Add(b Amount) Amount {
	return Amount{v: new(big.Int).Add(a.Big(), b.Big())}
}

func (a Amount) String() string {
	return a.Big().String()
}

// MarshalJSON always encodes as a string, the U128 convention.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = Amount{}
		return nil
	}

	s := string(bytes.Trim(b, `"`))

	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}

	*a = parsed
	return nil
}
