package db

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wehave/market/pkg/market"
)

func TestMemoryCrowdfunds(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()

	progress := market.NewAmount(10)
	err := m.SaveCrowdfunds(ctx, []*market.Crowdfund{
		{Index: 3, Metadata: market.TokenMetadata{Title: "paint"}, Goal: market.NewAmount(20)},
		{Index: 1, Metadata: market.TokenMetadata{Title: "sell"}, Goal: market.NewAmount(10), Progress: &progress, Funding: &market.FundingState{Enabled: true}},
	})
	require.NoError(t, err)

	cfs, err := m.Crowdfunds(ctx)
	require.NoError(t, err)
	require.Len(t, cfs, 2)
	require.Equal(t, uint64(1), cfs[0].Index)
	require.Nil(t, cfs[0].Funding)
	require.True(t, cfs[0].GoalReached())
	require.Equal(t, "paint", cfs[1].Metadata.Title)

	// the returned slice is a copy
	cfs[0].Metadata.Title = "changed"
	again, err := m.Crowdfunds(ctx)
	require.NoError(t, err)
	require.Equal(t, "sell", again[0].Metadata.Title)

	require.NoError(t, m.SaveCrowdfunds(ctx, nil))
	cfs, err = m.Crowdfunds(ctx)
	require.NoError(t, err)
	require.Empty(t, cfs)
}

func TestMemoryTallies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()

	vote := 1
	err := m.SaveTallies(ctx, []*market.ProposalTally{
		{ItemIndex: 2, DAO: "dao-b", ProposalIndex: 0},
		{ItemIndex: 1, DAO: "dao-a", ProposalIndex: 1, UserVote: &vote, Ballots: map[string]int{"alice.testnet": 1}},
		{ItemIndex: 1, DAO: "dao-a", ProposalIndex: 0, Percentages: []decimal.Decimal{decimal.RequireFromString("50.5")}},
	})
	require.NoError(t, err)

	tallies, err := m.Tallies(ctx)
	require.NoError(t, err)
	require.Len(t, tallies, 3)
	require.Equal(t, "dao-a", tallies[0].DAO)
	require.Equal(t, uint64(0), tallies[0].ProposalIndex)
	require.Equal(t, "50.5", tallies[0].Total().String())
	require.Nil(t, tallies[1].UserVote)
	require.Equal(t, 1, *tallies[1].VoteOf("alice.testnet"))
	require.Nil(t, tallies[1].VoteOf("bob.testnet"))
	require.Equal(t, "dao-b", tallies[2].DAO)
}

func TestMemoryPushTokens(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()

	require.NoError(t, m.AddToken(ctx, &market.PushToken{Token: "t1", Account: "alice.testnet"}))
	require.NoError(t, m.AddToken(ctx, &market.PushToken{Token: "t2", Account: "bob.testnet"}))

	tokens, err := m.Tokens(ctx)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	require.False(t, tokens[0].CreatedAt.IsZero())

	// a token registered again moves to the new account
	require.NoError(t, m.AddToken(ctx, &market.PushToken{Token: "t1", Account: "carol.testnet"}))
	tokens, err = m.Tokens(ctx)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	require.Equal(t, "carol.testnet", tokens[0].Account)

	// wrong account leaves the token in place
	require.NoError(t, m.RemoveAccountToken(ctx, "t1", "alice.testnet"))
	tokens, err = m.Tokens(ctx)
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	require.NoError(t, m.RemoveAccountToken(ctx, "t1", "carol.testnet"))
	require.NoError(t, m.RemoveToken(ctx, "t2"))
	require.NoError(t, m.RemoveToken(ctx, "missing"))

	tokens, err = m.Tokens(ctx)
	require.NoError(t, err)
	require.Empty(t, tokens)
}

func TestTableNameSuffix(t *testing.T) {
	require.Equal(t, "testnet", TableNameSuffix("testnet"))
	require.Equal(t, "my_net_1", TableNameSuffix("My-Net.1"))
}
