package common

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShortenName(t *testing.T) {
	inputs := []string{
		"John Doe",
		"John Doe Jr.",
		"dao-teslamodel3.items.wehave.testnet",
	}

	expected := []string{
		"Jo__oe",
		"Jo__r.",
		"da__et",
	}

	for i, input := range inputs {
		require.Equal(t, expected[i], ShortenName(input, 2), input)
	}
}

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "0", FormatAmount(nil))
	require.Equal(t, "1,250,000", FormatAmount(big.NewInt(1250000)))
	require.Equal(t, "12.50%", FormatPercent(12.5))
}
