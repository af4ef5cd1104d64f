package queue

import (
	"context"
	"time"

	"github.com/wehave/market/pkg/market"
)

type Service struct {
	queue      chan market.Message
	quit       chan bool
	maxRetries int

	ctx context.Context
	wm  market.WebhookMessager
}

type Processor interface {
	Process(market.Message) error
}

func NewService(maxRetries, bufferSize int, ctx context.Context, wm market.WebhookMessager) *Service {
	return &Service{
		queue:      make(chan market.Message, bufferSize),
		quit:       make(chan bool),
		maxRetries: maxRetries,
		ctx:        ctx,
		wm:         wm,
	}
}

func (s *Service) Enqueue(message market.Message) {
	s.queue <- message
}

func (s *Service) Close() {
	s.quit <- true
}

func (s *Service) Start(p Processor) error {
	for {
		select {
		case message := <-s.queue:
			// process an item in the queue
			// it is up to the processor to handle the data type
			err := p.Process(message)
			if err != nil {
				// if there is an error, requeue the message
				if message.RetryCount < s.maxRetries {
					message.RetryCount++
					if len(s.queue) == 0 {
						// if the queue was empty, we need to wait a bit
						// to avoid a busy loop
						extraWait := time.Duration(message.RetryCount) * time.Second
						time.Sleep(extraWait)
					}
					go s.Enqueue(message)
					continue
				}

				if s.wm != nil {
					s.wm.NotifyError(s.ctx, err)
				}
			}
		case <-s.quit:
			// quit the service
			return nil
		}
	}
}
