package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const _receiverBuffer = 16

type BrokerTopicName string

type BrokerMessage struct {
	Event string
	Value any
	Span  trace.Span
}

type InternalBroker interface {
	Subscribe(topic BrokerTopicName) (Subscription, error)
	Unsubscribe(topic BrokerTopicName, subscription Subscription) error
	Publish(ctx context.Context, topic BrokerTopicName, msg BrokerMessage) error
	Stop()
}

var _ InternalBroker = (*LocalBroker)(nil)

var ErrTopicNotFound = errors.New("topic not found")
var ErrSubscriptorNotFound = errors.New("subscriptor not found")

// LocalBroker fans messages out to in-process subscribers. Publishing never
// blocks: a subscriber whose buffer is full misses the message.
type LocalBroker struct {
	mu           sync.RWMutex
	subscriptors map[BrokerTopicName][]*subscriptor
}

type subscriptor struct {
	once         sync.Once
	subscription Subscription
}

type Subscription struct {
	ID       string
	Receiver chan BrokerMessage
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{
		subscriptors: make(map[BrokerTopicName][]*subscriptor),
	}
}

func (b *LocalBroker) Subscribe(topic BrokerTopicName) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscription := Subscription{
		ID:       uuid.NewString(),
		Receiver: make(chan BrokerMessage, _receiverBuffer),
	}
	b.subscriptors[topic] = append(b.subscriptors[topic], &subscriptor{subscription: subscription})
	return subscription, nil
}

func (b *LocalBroker) Unsubscribe(topic BrokerTopicName, subscription Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscriptors, ok := b.subscriptors[topic]
	if !ok {
		return ErrTopicNotFound
	}

	for i, s := range subscriptors {
		if s.subscription.ID != subscription.ID {
			continue
		}
		s.safeClose()
		b.subscriptors[topic] = append(subscriptors[:i:i], subscriptors[i+1:]...)
		if len(b.subscriptors[topic]) == 0 {
			delete(b.subscriptors, topic)
		}
		return nil
	}

	return ErrSubscriptorNotFound
}

func (b *LocalBroker) Publish(ctx context.Context, topic BrokerTopicName, msg BrokerMessage) error {
	msg.Span = trace.SpanFromContext(ctx)

	b.mu.RLock()
	defer b.mu.RUnlock()

	subscriptors, ok := b.subscriptors[topic]
	if !ok {
		return ErrTopicNotFound
	}

	for _, s := range subscriptors {
		select {
		case s.subscription.Receiver <- msg:
		default:
			slog.Warn("dropping message for slow subscriber",
				slog.String("topic", string(topic)),
				slog.String("subscription_id", s.subscription.ID))
		}
	}

	return nil
}

func (b *LocalBroker) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for topic, subscriptors := range b.subscriptors {
		for _, s := range subscriptors {
			s.safeClose()
		}
		delete(b.subscriptors, topic)
	}
}

func (s *subscriptor) safeClose() {
	s.once.Do(func() {
		close(s.subscription.Receiver)
	})
}
