package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wehave/market/pkg/market"
)

// MemoryDB is a process local store used when no database is configured.
type MemoryDB struct {
	mu         sync.RWMutex
	crowdfunds []*market.Crowdfund
	tallies    []*market.ProposalTally
	tokens     map[string]*market.PushToken
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		tokens: map[string]*market.PushToken{},
	}
}

func (m *MemoryDB) SaveCrowdfunds(ctx context.Context, cfs []*market.Crowdfund) error {
	cp := make([]*market.Crowdfund, len(cfs))
	for i, cf := range cfs {
		c := *cf
		c.Funding = nil
		cp[i] = &c
	}

	sort.Slice(cp, func(i, j int) bool { return cp[i].Index < cp[j].Index })

	m.mu.Lock()
	defer m.mu.Unlock()

	m.crowdfunds = cp
	return nil
}

func (m *MemoryDB) Crowdfunds(ctx context.Context) ([]*market.Crowdfund, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfs := make([]*market.Crowdfund, len(m.crowdfunds))
	for i, cf := range m.crowdfunds {
		c := *cf
		cfs[i] = &c
	}

	return cfs, nil
}

func (m *MemoryDB) SaveTallies(ctx context.Context, tallies []*market.ProposalTally) error {
	cp := make([]*market.ProposalTally, len(tallies))
	for i, t := range tallies {
		c := *t
		c.UserVote = nil
		c.Ballots = copyBallots(t.Ballots)
		cp[i] = &c
	}

	sort.SliceStable(cp, func(i, j int) bool {
		if cp[i].ItemIndex != cp[j].ItemIndex {
			return cp[i].ItemIndex < cp[j].ItemIndex
		}
		return cp[i].ProposalIndex < cp[j].ProposalIndex
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	m.tallies = cp
	return nil
}

func (m *MemoryDB) Tallies(ctx context.Context) ([]*market.ProposalTally, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tallies := make([]*market.ProposalTally, len(m.tallies))
	for i, t := range m.tallies {
		c := *t
		c.Ballots = copyBallots(t.Ballots)
		tallies[i] = &c
	}

	return tallies, nil
}

func copyBallots(b map[string]int) map[string]int {
	if b == nil {
		return nil
	}

	c := make(map[string]int, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}

func (m *MemoryDB) AddToken(ctx context.Context, p *market.PushToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()

	if existing, ok := m.tokens[p.Token]; ok {
		existing.Account = p.Account
		existing.UpdatedAt = now
		return nil
	}

	m.tokens[p.Token] = &market.PushToken{
		Token:     p.Token,
		Account:   p.Account,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return nil
}

func (m *MemoryDB) RemoveAccountToken(ctx context.Context, token, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.tokens[token]; ok && t.Account == account {
		delete(m.tokens, token)
	}

	return nil
}

func (m *MemoryDB) RemoveToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tokens, token)
	return nil
}

func (m *MemoryDB) Tokens(ctx context.Context) ([]*market.PushToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pt := make([]*market.PushToken, 0, len(m.tokens))
	for _, t := range m.tokens {
		c := *t
		pt = append(pt, &c)
	}

	sort.Slice(pt, func(i, j int) bool { return pt[i].Token < pt[j].Token })

	return pt, nil
}

var (
	_ market.SnapshotStore  = (*MemoryDB)(nil)
	_ market.PushTokenStore = (*MemoryDB)(nil)
	_ market.SnapshotStore  = (*DB)(nil)
	_ market.PushTokenStore = (*DB)(nil)
)
