package events

import (
	"context"
	"log/slog"
	"sync"
)

const (
	TopicUser     = "user_events"
	TopicProduct  = "product_events"
	TopicCart     = "cart_events"
	TopicOrder    = "order_events"
	TopicCoin     = "coin_events"
	TopicCampaign = "campaign_events"
)

func Topics() []string {
	return []string{TopicUser, TopicProduct, TopicCart, TopicOrder, TopicCoin, TopicCampaign}
}

// Publisher delivers a domain event to a topic, keyed for partitioning.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, event map[string]any) error
	Close() error
}

// LogPublisher writes events to the log instead of a broker.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, topic, key string, event map[string]any) error {
	l := p.Logger
	if l == nil {
		l = slog.Default()
	}
	l.DebugContext(ctx, "event", "topic", topic, "key", key, "event", event)
	return nil
}

func (LogPublisher) Close() error { return nil }

type Message struct {
	Topic string
	Key   string
	Event map[string]any
}

// Memory keeps published events in process.
type Memory struct {
	mu   sync.Mutex
	msgs []Message
}

func (m *Memory) Publish(_ context.Context, topic, key string, event map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, Message{Topic: topic, Key: key, Event: event})
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.msgs))
	copy(out, m.msgs)
	return out
}

// Types returns the "type" field of every event published to topic, in order.
func (m *Memory) Types(topic string) []string {
	var out []string
	for _, msg := range m.Messages() {
		if msg.Topic != topic {
			continue
		}
		if t, ok := msg.Event["type"].(string); ok {
			out = append(out, t)
		}
	}
	return out
}
