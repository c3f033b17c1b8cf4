package events

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestProducer_PublishesJSON(t *testing.T) {
	brokers := os.Getenv("KAFKA_TEST_BROKERS")
	if brokers == "" {
		t.Skip("KAFKA_TEST_BROKERS is required for this test")
	}

	topic := "coin_events_test_" + uuid.NewString()[:8]
	p, err := NewProducer([]string{brokers})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	require.NoError(t, p.Publish(ctx, topic, "user-1", map[string]any{"type": "coins_earned", "amount": 5}))

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   []string{brokers},
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	t.Cleanup(func() { _ = r.Close() })

	msg, err := r.ReadMessage(ctx)
	require.NoError(t, err)
	require.Equal(t, "user-1", string(msg.Key))

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	require.Equal(t, "coins_earned", got["type"])
	require.EqualValues(t, 5, got["amount"])
}
