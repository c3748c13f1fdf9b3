package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Publisher sends domain events to the broker.  Publishing is best effort:
// the sheet stays the source of truth.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event interface{}) error
}

const publishTimeout = 5 * time.Second

// publishAsync hands the event to p without holding up the request.  A nil
// publisher drops the event.
func publishAsync(p Publisher, routingKey string, event interface{}) {
	if p == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		_ = p.Publish(ctx, routingKey, event) // the publisher logs its own failures
	}()
}

func newEventID() string { return uuid.NewString() }

func nowRFC3339() string { return time.Now().UTC().Format(time.RFC3339) }
