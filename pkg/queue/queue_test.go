package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wehave/market/internal/services/db"
	"github.com/wehave/market/pkg/market"
	"go.uber.org/zap"
)

type TestProcessor struct {
	mu    sync.Mutex
	count int

	failFor       string
	expectedError error
}

func (p *TestProcessor) Process(m market.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.count++
	if m.ID == p.failFor {
		return p.expectedError
	}
	return nil
}

func (p *TestProcessor) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

type TestMessager struct {
	mu     sync.Mutex
	errors []error
}

func (m *TestMessager) Notify(ctx context.Context, message string) error {
	return nil
}

func (m *TestMessager) NotifyError(ctx context.Context, errorMessage error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, errorMessage)
	return nil
}

func runQueue(t *testing.T, q *Service, p *TestProcessor, messages []market.Message, expected int) {
	t.Helper()

	go func() {
		for _, m := range messages {
			q.Enqueue(m)
		}

		deadline := time.Now().Add(10 * time.Second)
		for p.Count() < expected && time.Now().Before(deadline) {
			time.Sleep(50 * time.Millisecond)
		}
		q.Close()
	}()

	require.NoError(t, q.Start(p))
}

func TestProcessMessages(t *testing.T) {
	expectedError := errors.New("invalid message")

	t.Run("all succeed", func(t *testing.T) {
		messages := []market.Message{
			*market.NewMessage("a"),
			*market.NewMessage("b"),
			*market.NewMessage("c"),
		}

		m := &TestMessager{}
		q := NewService(3, 10, context.Background(), m)
		p := &TestProcessor{expectedError: expectedError}

		runQueue(t, q, p, messages, len(messages))

		require.Equal(t, len(messages), p.Count())
		require.Empty(t, m.errors)
	})

	t.Run("one failing is retried then reported", func(t *testing.T) {
		failing := market.Message{ID: "invalid", CreatedAt: time.Now(), Message: "invalid"}
		messages := []market.Message{
			*market.NewMessage("a"),
			failing,
			*market.NewMessage("b"),
		}

		m := &TestMessager{}
		q := NewService(1, 10, context.Background(), m)
		p := &TestProcessor{failFor: "invalid", expectedError: expectedError}

		runQueue(t, q, p, messages, len(messages)+1)

		require.Equal(t, len(messages)+1, p.Count())

		m.mu.Lock()
		defer m.mu.Unlock()
		require.Equal(t, []error{expectedError}, m.errors)
	})
}

type fakePusher struct {
	sent      []*market.PushMessage
	badTokens []string
	err       error
}

func (f *fakePusher) Send(ctx context.Context, push *market.PushMessage) ([]string, error) {
	f.sent = append(f.sent, push)
	return f.badTokens, f.err
}

func TestPushProcessor(t *testing.T) {
	ctx := context.Background()

	store := db.NewMemoryDB()
	require.NoError(t, store.AddToken(ctx, &market.PushToken{Token: "good", Account: "alice.testnet"}))
	require.NoError(t, store.AddToken(ctx, &market.PushToken{Token: "bad", Account: "bob.testnet"}))

	tokens, err := store.Tokens(ctx)
	require.NoError(t, err)

	pusher := &fakePusher{badTokens: []string{"bad"}}
	p := NewPushProcessor(ctx, pusher, store, zap.NewNop())

	cf := &market.Crowdfund{Index: 1, Metadata: market.TokenMetadata{Title: "sell"}, Goal: market.NewAmount(50)}
	require.NoError(t, p.Process(*market.NewGoalReachedMessage(tokens, cf)))

	require.Len(t, pusher.sent, 1)
	require.Equal(t, "sell", pusher.sent[0].Title)
	require.Len(t, pusher.sent[0].Tokens, 2)

	left, err := store.Tokens(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	require.Equal(t, "good", left[0].Token)

	// unknown payloads are dropped
	require.NoError(t, p.Process(*market.NewMessage("other")))
	require.Len(t, pusher.sent, 1)

	pusher.err = errors.New("unavailable")
	require.Error(t, p.Process(*market.NewGoalReachedMessage(left, cf)))
}
