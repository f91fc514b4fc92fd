package chat

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tmoran/ridelink/internal/domain"
)

// FrameType discriminates the JSON wire frames.
type FrameType string

const (
	FrameJoinTourChat FrameType = "join_tour_chat"
	FrameSendMessage  FrameType = "send_message"
	FrameJoinedChat   FrameType = "joined_chat"
	FrameNewMessage   FrameType = "new_message"
	FrameError        FrameType = "error"
)

// ErrUnknownFrame is returned when a frame's type field names no known variant.
var ErrUnknownFrame = errors.New("unrecognized frame type")

// ClientFrame is the closed set of frames a client may send. Adding a
// variant means extending DecodeClientFrame and every switch over this
// interface.
type ClientFrame interface {
	clientFrame()
}

// JoinTourChat requests to join a tour's room under a claimed user identity.
type JoinTourChat struct {
	TourID string `json:"tourId"`
	UserID string `json:"userId"`
}

// SendMessage posts text to the currently joined room.
type SendMessage struct {
	Message string `json:"message"`
}

func (JoinTourChat) clientFrame() {}
func (SendMessage) clientFrame()  {}

// ServerFrame is the closed set of frames the server may send.
type ServerFrame interface {
	serverFrame()
}

// JoinedChat acknowledges a successful join.
type JoinedChat struct {
	TourID string `json:"tourId"`
}

// ErrorFrame reports a rejected or malformed request. The connection stays
// open and usable after one of these.
type ErrorFrame struct {
	Message string `json:"message"`
}

// NewMessage carries a freshly persisted chat message, author included.
type NewMessage struct {
	Message domain.ChatMessage `json:"message"`
}

func (JoinedChat) serverFrame() {}
func (ErrorFrame) serverFrame() {}
func (NewMessage) serverFrame() {}

// frameEnvelope is the superset of client frame fields plus the type tag.
type frameEnvelope struct {
	Type    FrameType       `json:"type"`
	TourID  string          `json:"tourId"`
	UserID  string          `json:"userId"`
	Message json.RawMessage `json:"message"`
}

// DecodeClientFrame parses an inbound frame into its typed variant.
func DecodeClientFrame(data []byte) (ClientFrame, error) {
	var env frameEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch env.Type {
	case FrameJoinTourChat:
		return JoinTourChat{TourID: env.TourID, UserID: env.UserID}, nil
	case FrameSendMessage:
		var text string
		if len(env.Message) > 0 {
			if err := json.Unmarshal(env.Message, &text); err != nil {
				return nil, fmt.Errorf("malformed frame: %w", err)
			}
		}
		return SendMessage{Message: text}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrame, env.Type)
	}
}

// DecodeServerFrame parses a frame received by the client transport.
func DecodeServerFrame(data []byte) (ServerFrame, error) {
	var env frameEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch env.Type {
	case FrameJoinedChat:
		return JoinedChat{TourID: env.TourID}, nil
	case FrameError:
		var text string
		if len(env.Message) > 0 {
			if err := json.Unmarshal(env.Message, &text); err != nil {
				return nil, fmt.Errorf("malformed frame: %w", err)
			}
		}
		return ErrorFrame{Message: text}, nil
	case FrameNewMessage:
		var msg domain.ChatMessage
		if len(env.Message) > 0 {
			if err := json.Unmarshal(env.Message, &msg); err != nil {
				return nil, fmt.Errorf("malformed frame: %w", err)
			}
		}
		return NewMessage{Message: msg}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrame, env.Type)
	}
}

// EncodeFrame serializes any frame with its type discriminator.
func EncodeFrame(frame any) ([]byte, error) {
	switch v := frame.(type) {
	case JoinTourChat:
		return json.Marshal(struct {
			Type FrameType `json:"type"`
			JoinTourChat
		}{FrameJoinTourChat, v})
	case SendMessage:
		return json.Marshal(struct {
			Type FrameType `json:"type"`
			SendMessage
		}{FrameSendMessage, v})
	case JoinedChat:
		return json.Marshal(struct {
			Type FrameType `json:"type"`
			JoinedChat
		}{FrameJoinedChat, v})
	case ErrorFrame:
		return json.Marshal(struct {
			Type FrameType `json:"type"`
			ErrorFrame
		}{FrameError, v})
	case NewMessage:
		return json.Marshal(struct {
			Type FrameType `json:"type"`
			NewMessage
		}{FrameNewMessage, v})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownFrame, frame)
	}
}
