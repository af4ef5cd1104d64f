//go:build db_test

package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wehave/market/pkg/market"
)

func testDB(t *testing.T) *DB {
	t.Helper()

	d, err := NewDB("dbtest",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_READER_HOST"),
	)
	require.NoError(t, err)

	d.SetTesting()
	t.Cleanup(func() {
		d.Close()
	})

	return d
}

func TestCrowdfundDB(t *testing.T) {
	ctx := context.Background()
	d := testDB(t)

	progress, err := market.ParseAmount("1000000000000000000000000000000")
	require.NoError(t, err)
	fee := 4.0
	now := time.Now().UTC().Truncate(time.Second)

	err = d.SaveCrowdfunds(ctx, []*market.Crowdfund{
		{Index: 1, Metadata: market.TokenMetadata{Title: "sell", Media: "ipfs://x"}, Goal: progress, Progress: &progress, FeePercentage: &fee, UpdatedAt: now},
		{Index: 0, Metadata: market.TokenMetadata{Title: "paint"}, Goal: market.NewAmount(5), UpdatedAt: now},
	})
	require.NoError(t, err)

	cfs, err := d.Crowdfunds(ctx)
	require.NoError(t, err)
	require.Len(t, cfs, 2)
	require.Equal(t, "paint", cfs[0].Metadata.Title)
	require.Nil(t, cfs[0].Progress)
	require.Nil(t, cfs[0].FeePercentage)
	require.True(t, cfs[1].GoalReached())
	require.Equal(t, 4.0, *cfs[1].FeePercentage)
	require.Equal(t, "ipfs://x", cfs[1].Metadata.Media)
}

func TestTallyDB(t *testing.T) {
	ctx := context.Background()
	d := testDB(t)

	err := d.SaveTallies(ctx, []*market.ProposalTally{
		{
			ItemIndex:     1,
			DAO:           "dao-ft1.testnet",
			ProposalIndex: 0,
			Question:      "sell?",
			Options:       []string{"yes", "no"},
			Percentages:   []decimal.Decimal{decimal.RequireFromString("66.6666"), decimal.RequireFromString("16.6666")},
			Voters:        2,
			Ballots:       map[string]int{"alice.testnet": 0, "bob.testnet": 1},
			UpdatedAt:     time.Now().UTC(),
		},
	})
	require.NoError(t, err)

	tallies, err := d.Tallies(ctx)
	require.NoError(t, err)
	require.Len(t, tallies, 1)
	require.Equal(t, []string{"yes", "no"}, tallies[0].Options)
	require.Equal(t, "83.3332", tallies[0].Total().String())
	require.Equal(t, 2, tallies[0].Voters)
	require.Equal(t, map[string]int{"alice.testnet": 0, "bob.testnet": 1}, tallies[0].Ballots)
}

func TestPushTokenDB(t *testing.T) {
	ctx := context.Background()
	d := testDB(t)

	require.NoError(t, d.AddToken(ctx, &market.PushToken{Token: "t1", Account: "alice.testnet"}))
	require.NoError(t, d.AddToken(ctx, &market.PushToken{Token: "t1", Account: "bob.testnet"}))

	tokens, err := d.Tokens(ctx)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	require.Equal(t, "bob.testnet", tokens[0].Account)

	require.NoError(t, d.RemoveAccountToken(ctx, "t1", "alice.testnet"))
	tokens, err = d.Tokens(ctx)
	require.NoError(t, err)
	require.Len(t, tokens, 1)

	require.NoError(t, d.RemoveToken(ctx, "t1"))
	tokens, err = d.Tokens(ctx)
	require.NoError(t, err)
	require.Empty(t, tokens)
}
