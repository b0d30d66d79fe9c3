package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jkang1643/Exbabel/internal/models"
)

// WebSocketSender writes outbound messages as JSON text frames. The
// connection allows a single concurrent writer, so sends are serialized
// with a mutex; the session's dispatcher and caption path share one
// instance.
type WebSocketSender struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

// NewWebSocketSender wraps an upgraded connection.
func NewWebSocketSender(conn *websocket.Conn, writeTimeout time.Duration) *WebSocketSender {
	return &WebSocketSender{conn: conn, writeTimeout: writeTimeout}
}

// Send writes one message, honoring the configured write deadline.
func (s *WebSocketSender) Send(_ context.Context, msg models.OutboundMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}
