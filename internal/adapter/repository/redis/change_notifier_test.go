package redis

import (
	"context"
	"testing"
	"time"
)

func TestChangeNotifier_PublishReachesSubscriber(t *testing.T) {
	client, _ := newTestRedis(t)

	notifier := NewChangeNotifier(client)
	ctx := context.Background()

	sub, err := notifier.Subscribe(ctx, "ledger:book-1")
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer sub.Close()

	other, err := notifier.Subscribe(ctx, "ledger:book-2")
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer other.Close()

	if err := notifier.Publish(ctx, "ledger:book-1"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case <-sub.Changes():
	case <-time.After(2 * time.Second):
		t.Fatalf("expected change signal")
	}

	select {
	case <-other.Changes():
		t.Fatalf("unexpected signal for another topic")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestChangeNotifier_CloseEndsChanges(t *testing.T) {
	client, _ := newTestRedis(t)

	sub, err := NewChangeNotifier(client).Subscribe(context.Background(), "ledger:book-1")
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	if err := sub.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}

	select {
	case _, ok := <-sub.Changes():
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("changes channel was not closed")
	}
}

func TestChangeNotifier_ChannelIsPrefixed(t *testing.T) {
	client, mr := newTestRedis(t)

	sub, err := NewChangeNotifier(client).Subscribe(context.Background(), "books:shelf-1")
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer sub.Close()

	if n := mr.Publish("changes:books:shelf-1", "changed"); n != 1 {
		t.Fatalf("expected one subscriber on the prefixed channel, got %d", n)
	}

	select {
	case <-sub.Changes():
	case <-time.After(2 * time.Second):
		t.Fatalf("expected change signal")
	}
}
