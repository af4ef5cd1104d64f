package queue

import (
	"context"
	"errors"

	"github.com/wehave/market/pkg/market"
	"go.uber.org/zap"
)

var ErrInvalidPushMessage = errors.New("invalid push message")

// Pusher delivers a push message and returns the tokens that were rejected.
type Pusher interface {
	Send(ctx context.Context, push *market.PushMessage) ([]string, error)
}

type PushProcessor struct {
	ctx    context.Context
	pusher Pusher
	tokens market.PushTokenStore
	log    *zap.Logger
}

func NewPushProcessor(ctx context.Context, pusher Pusher, tokens market.PushTokenStore, log *zap.Logger) *PushProcessor {
	return &PushProcessor{
		ctx:    ctx,
		pusher: pusher,
		tokens: tokens,
		log:    log.Named("push"),
	}
}

// Process sends a push message and forgets every token the push service
// rejected.
func (p *PushProcessor) Process(message market.Message) error {
	push, ok := message.Message.(market.PushMessage)
	if !ok {
		p.log.Warn("dropping message", zap.String("id", message.ID))
		return nil
	}

	if len(push.Tokens) == 0 {
		return nil
	}

	badTokens, err := p.pusher.Send(p.ctx, &push)
	if err != nil {
		return err
	}

	for _, token := range badTokens {
		if err := p.tokens.RemoveToken(p.ctx, token); err != nil {
			p.log.Error("failed to remove token", zap.Error(err))
		}
	}

	if len(badTokens) > 0 {
		p.log.Info("removed push tokens", zap.Int("count", len(badTokens)))
	}

	return nil
}
