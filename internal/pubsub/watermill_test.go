package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillBridge_PublishSubscribeRoundtrip(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Message, 1)
	err := bridge.Subscribe(ctx, TopicTourMemberJoined, func(ctx context.Context, msg Message) error {
		received <- msg
		return nil
	})
	require.NoError(t, err)

	sent := Message{
		Topic:    TopicTourMemberJoined,
		UserID:   "user:alex",
		Payload:  []byte(`{"tourId":"tour:alps"}`),
		Metadata: map[string]string{"source": "test"},
	}
	require.NoError(t, bridge.Publish(ctx, sent))

	select {
	case msg := <-received:
		assert.Equal(t, TopicTourMemberJoined, msg.Topic)
		assert.Equal(t, "user:alex", msg.UserID)
		assert.Equal(t, sent.Payload, msg.Payload)
		assert.Equal(t, "test", msg.Metadata["source"])
	case <-time.After(2 * time.Second):
		t.Fatal("message was not delivered")
	}
}

func TestWatermillBridge_TopicsAreIsolated(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Message, 1)
	require.NoError(t, bridge.Subscribe(ctx, TopicPostCreated, func(ctx context.Context, msg Message) error {
		received <- msg
		return nil
	}))

	require.NoError(t, bridge.Publish(ctx, Message{
		Topic:   TopicSocketConnected,
		Payload: []byte(`{}`),
	}))

	select {
	case msg := <-received:
		t.Fatalf("subscriber received a message from another topic: %s", msg.Topic)
	case <-time.After(200 * time.Millisecond):
	}
}
