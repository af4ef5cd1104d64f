package market

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID         string
	CreatedAt  time.Time
	RetryCount int
	Message    any
}

type PushMessage struct {
	Tokens []*PushToken
	Title  string
	Body   string
	Data   []byte
	Silent bool
}

func NewMessage(message any) *Message {
	return &Message{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		Message:    message,
	}
}

// NewGoalReachedMessage notifies subscribers that a crowdfund has been fully
// funded.
func NewGoalReachedMessage(tokens []*PushToken, cf *Crowdfund) *Message {
	data, err := json.Marshal(cf)
	if err != nil {
		data = nil
	}

	return NewMessage(PushMessage{
		Tokens: tokens,
		Title:  cf.Metadata.Title,
		Body:   fmt.Sprintf("%s reached its goal of $%s", cf.Metadata.Title, cf.Goal.String()),
		Data:   data,
	})
}
