package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/DavidRambo/image-microservice/internal/model"
	"github.com/wb-go/wbf/retry"
)

// Sender - контракт продюсера (wbf kafka.Producer)
type Sender interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, v []byte) error
}

// Стратегия ретрая отправки в очередь
var retryStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    500 * time.Millisecond,
	Backoff:  2,
}

type EventPublisher struct {
	sender Sender
	now    func() time.Time
}

func NewEventPublisher(s Sender) *EventPublisher {
	return &EventPublisher{sender: s, now: time.Now}
}

// Publish - ключ сообщения это альбом, так события одного альбома попадают в одну партицию по порядку
func (p *EventPublisher) Publish(ctx context.Context, ev model.ImageEvent) error {
	if ev.At == 0 {
		ev.At = p.now().UTC().Unix()
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}

	key := []byte(strconv.FormatInt(ev.Album, 10))
	return p.sender.SendWithRetry(ctx, retryStrategy, key, body)
}

// NoopPublisher is used when no broker is configured
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, model.ImageEvent) error {
	return nil
}
