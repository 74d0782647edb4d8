package redis

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/iho/fundsbook/internal/usecase"
)

// ChangeNotifier implements usecase.ChangeNotifier over Redis pub/sub, so
// every server instance sees changes written by any other. Each topic is
// one channel.
type ChangeNotifier struct {
	client *redis.Client
	prefix string
}

// NewChangeNotifier creates a new ChangeNotifier.
func NewChangeNotifier(client *redis.Client) *ChangeNotifier {
	return &ChangeNotifier{
		client: client,
		prefix: "changes:",
	}
}

// Publish signals that the data behind topic changed.
func (n *ChangeNotifier) Publish(ctx context.Context, topic string) error {
	return n.client.Publish(ctx, n.prefix+topic, "changed").Err()
}

// Subscribe starts listening for changes to a topic. It returns once Redis
// has confirmed the subscription.
func (n *ChangeNotifier) Subscribe(ctx context.Context, topic string) (usecase.Subscription, error) {
	pubsub := n.client.Subscribe(ctx, n.prefix+topic)

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	sub := &subscription{
		pubsub:  pubsub,
		changes: make(chan struct{}, 1),
	}
	go sub.forward()

	return sub, nil
}

type subscription struct {
	pubsub    *redis.PubSub
	changes   chan struct{}
	closeOnce sync.Once
}

// forward turns messages into change signals. Bursts collapse into one
// pending signal because receivers always re-read the whole snapshot.
func (s *subscription) forward() {
	defer close(s.changes)

	for range s.pubsub.Channel() {
		select {
		case s.changes <- struct{}{}:
		default:
		}
	}
}

func (s *subscription) Changes() <-chan struct{} {
	return s.changes
}

func (s *subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.pubsub.Close()
	})
	return err
}
