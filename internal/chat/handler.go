package chat

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"github.com/tmoran/ridelink/internal/domain"
	"github.com/tmoran/ridelink/internal/pubsub"
)

const writeTimeout = 10 * time.Second

// Handler upgrades HTTP requests to WebSocket connections and runs the chat
// session protocol over them.
type Handler struct {
	registry    *Registry
	gate        MembershipGate
	messages    domain.MessageRepository
	broadcaster *Broadcaster
	publisher   pubsub.Publisher
}

// NewHandler wires the chat endpoint's collaborators together.
func NewHandler(registry *Registry, gate MembershipGate, messages domain.MessageRepository, broadcaster *Broadcaster, publisher pubsub.Publisher) *Handler {
	return &Handler{
		registry:    registry,
		gate:        gate,
		messages:    messages,
		broadcaster: broadcaster,
		publisher:   publisher,
	}
}

// Serve handles a WebSocket upgrade request at /ws.
func (h *Handler) Serve(c echo.Context) error {
	ws, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true, // In production, check origin.
	})
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return err
	}

	conn := h.registry.Register()
	session := NewSession(conn, h.registry, h.gate, h.messages, h.broadcaster)
	slog.Info("Client connected to chat", "connID", conn.ID)

	go h.writePump(ws, conn)
	go h.readPump(ws, conn, session)

	h.publishLifecycleEvent(pubsub.TopicSocketConnected, conn.ID)

	return nil
}

// readPump pumps inbound frames into the session until the transport closes,
// then runs the close path exactly once.
func (h *Handler) readPump(ws *websocket.Conn, conn *Conn, session *Session) {
	defer func() {
		session.Close()
		ws.Close(websocket.StatusNormalClosure, "Client disconnected")
		h.publishLifecycleEvent(pubsub.TopicSocketDisconnected, conn.ID)
		slog.Info("Client disconnected from chat", "connID", conn.ID)
	}()

	for {
		_, data, err := ws.Read(context.Background())
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || websocket.CloseStatus(err) == websocket.StatusGoingAway {
				slog.Debug("WebSocket closed normally by client", "connID", conn.ID)
			} else if err != io.EOF {
				slog.Debug("WebSocket read error", "connID", conn.ID, "error", err)
			}
			return
		}
		session.HandleFrame(context.Background(), data)
	}
}

// writePump drains the connection's outbound channel onto the wire. It exits
// when the registry closes the channel on unregister.
func (h *Handler) writePump(ws *websocket.Conn, conn *Conn) {
	defer ws.Close(websocket.StatusNormalClosure, "Server-side cleanup")

	out := conn.Outbound()
	for payload := range out {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := ws.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			slog.Debug("WebSocket write error", "connID", conn.ID, "error", err)
			return
		}
	}
}

// publishLifecycleEvent emits a connected/disconnected event on the bus. Any
// component can listen without being wired into the socket path.
func (h *Handler) publishLifecycleEvent(topic, connID string) {
	payload, _ := json.Marshal(map[string]any{"connID": connID})
	msg := pubsub.Message{
		Topic:   topic,
		Payload: payload,
		Metadata: map[string]string{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := h.publisher.Publish(context.Background(), msg); err != nil {
		slog.Error("Failed to publish socket lifecycle event", "topic", topic, "error", err)
	}
}
