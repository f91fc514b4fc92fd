package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmoran/ridelink/internal/domain"
)

func TestDecodeClientFrame_JoinTourChat(t *testing.T) {
	raw := []byte(`{"type":"join_tour_chat","tourId":"tour:alps","userId":"user:alex"}`)

	frame, err := DecodeClientFrame(raw)
	require.NoError(t, err)

	join, ok := frame.(JoinTourChat)
	require.True(t, ok, "expected JoinTourChat, got %T", frame)
	assert.Equal(t, "tour:alps", join.TourID)
	assert.Equal(t, "user:alex", join.UserID)
}

func TestDecodeClientFrame_SendMessage(t *testing.T) {
	raw := []byte(`{"type":"send_message","message":"hello riders"}`)

	frame, err := DecodeClientFrame(raw)
	require.NoError(t, err)

	send, ok := frame.(SendMessage)
	require.True(t, ok, "expected SendMessage, got %T", frame)
	assert.Equal(t, "hello riders", send.Message)
}

func TestDecodeClientFrame_UnknownType(t *testing.T) {
	_, err := DecodeClientFrame([]byte(`{"type":"emoji_react"}`))
	assert.ErrorIs(t, err, ErrUnknownFrame)
}

func TestDecodeClientFrame_MalformedJSON(t *testing.T) {
	_, err := DecodeClientFrame([]byte(`not json at all`))
	assert.Error(t, err)
}

func TestDecodeClientFrame_ServerFrameRejected(t *testing.T) {
	// Server frame types are not valid inbound frames.
	_, err := DecodeClientFrame([]byte(`{"type":"joined_chat","tourId":"tour:alps"}`))
	assert.ErrorIs(t, err, ErrUnknownFrame)
}

func TestEncodeFrame_JoinWireShape(t *testing.T) {
	payload, err := EncodeFrame(JoinTourChat{TourID: "tour:alps", UserID: "user:alex"})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "join_tour_chat", decoded["type"])
	assert.Equal(t, "tour:alps", decoded["tourId"])
	assert.Equal(t, "user:alex", decoded["userId"])
}

func TestEncodeFrame_RejectsUnknownType(t *testing.T) {
	_, err := EncodeFrame(struct{ X int }{1})
	assert.ErrorIs(t, err, ErrUnknownFrame)
}

func TestDecodeServerFrame_Variants(t *testing.T) {
	t.Run("joined_chat", func(t *testing.T) {
		frame, err := DecodeServerFrame([]byte(`{"type":"joined_chat","tourId":"tour:alps"}`))
		require.NoError(t, err)
		assert.Equal(t, JoinedChat{TourID: "tour:alps"}, frame)
	})

	t.Run("error", func(t *testing.T) {
		frame, err := DecodeServerFrame([]byte(`{"type":"error","message":"Not a member of this tour"}`))
		require.NoError(t, err)
		assert.Equal(t, ErrorFrame{Message: "Not a member of this tour"}, frame)
	})

	t.Run("new_message carries the author", func(t *testing.T) {
		ts := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
		original := NewMessage{Message: domain.ChatMessage{
			ID:        "chat_message:1",
			TourID:    "tour:alps",
			UserID:    "user:alex",
			Message:   "hello",
			Timestamp: ts,
			User:      &domain.User{ID: "user:alex", Username: "alex_rider"},
		}}

		payload, err := EncodeFrame(original)
		require.NoError(t, err)

		frame, err := DecodeServerFrame(payload)
		require.NoError(t, err)

		msg, ok := frame.(NewMessage)
		require.True(t, ok, "expected NewMessage, got %T", frame)
		assert.Equal(t, "hello", msg.Message.Message)
		assert.True(t, ts.Equal(msg.Message.Timestamp))
		require.NotNil(t, msg.Message.User)
		assert.Equal(t, "alex_rider", msg.Message.User.Username)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := DecodeServerFrame([]byte(`{"type":"send_message","message":"x"}`))
		assert.ErrorIs(t, err, ErrUnknownFrame)
	})
}
