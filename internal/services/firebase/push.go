package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	com "github.com/wehave/market/internal/common"
	"github.com/wehave/market/internal/storage"
	"github.com/wehave/market/pkg/market"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type PushService struct {
	Messaging *messaging.Client
	log       *zap.Logger
}

// NewPushService returns a disabled service when the credentials file is
// missing.
func NewPushService(ctx context.Context, path string, log *zap.Logger) (*PushService, error) {
	log = log.Named("firebase")

	if !storage.Exists(path) {
		log.Warn("firebase credentials file not found, push notifications will be disabled")
		return &PushService{log: log}, nil
	}

	opt := option.WithCredentialsFile(path)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing messaging client: %w", err)
	}

	return &PushService{
		Messaging: client,
		log:       log,
	}, nil
}

// Send sends a push notification to the given tokens. Returns the tokens to be removed.
func (s *PushService) Send(ctx context.Context, push *market.PushMessage) ([]string, error) {
	if s.Messaging == nil {
		return []string{}, nil
	}

	tokens := com.Map(push.Tokens, func(t *market.PushToken) string {
		return t.Token
	})

	data := "{}"
	if push.Data != nil {
		data = string(push.Data)
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Data: map[string]string{
			"crowdfund": data,
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					ContentAvailable: push.Silent,
				},
			},
			Headers: map[string]string{
				"apns-priority": "10",
			},
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}

	if !push.Silent {
		message.Notification = &messaging.Notification{
			Title: push.Title,
			Body:  push.Body,
		}
	}

	br, err := s.Messaging.SendEachForMulticast(ctx, message)
	if err != nil {
		return []string{}, err
	}

	if br.FailureCount == 0 {
		return []string{}, nil
	}

	var failedTokens []string
	for idx, resp := range br.Responses {
		if resp.Success {
			continue
		}

		// only tokens the service no longer knows are dropped
		if messaging.IsUnregistered(resp.Error) || messaging.IsInvalidArgument(resp.Error) {
			failedTokens = append(failedTokens, tokens[idx])
		}
	}

	s.log.Info("push sent", zap.Int("success", br.SuccessCount), zap.Int("failure", br.FailureCount))

	return failedTokens, nil
}
