package infra

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"figgie_go/internal/domain"
)

// ErrChannelClosed is returned by Send after the connection is gone and by
// Listen when the server side closes.
var ErrChannelClosed = domain.ErrChannelClosed

// ChannelURL builds the per-(room, player) websocket route.
func ChannelURL(base, roomID, playerID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid ws url %q: %w", base, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("invalid ws url %q: scheme must be ws or wss", base)
	}
	q := u.Query()
	q.Set("room_id", roomID)
	q.Set("player_id", playerID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// WSChannel is one websocket connection to the game server. Writes are
// serialized; Close may be called any number of times from any goroutine.
type WSChannel struct {
	id      string
	mu      sync.RWMutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PingInterval time.Duration
}

// DialChannel connects to the channel for (roomID, playerID).
func DialChannel(ctx context.Context, base, roomID, playerID string) (*WSChannel, error) {
	target, err := ChannelURL(base, roomID, playerID)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := make(http.Header)
	header.Set("User-Agent", UserAgent())

	conn, _, err := dialer.DialContext(ctx, target, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}

	slog.Info("WS Connected", slog.String("room_id", roomID), slog.String("player_id", playerID))
	return &WSChannel{
		id:           roomID + "/" + playerID,
		conn:         conn,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
		PingInterval: 30 * time.Second,
	}, nil
}

func (c *WSChannel) current() *websocket.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

// Listen reads frames and hands each to fn in order. It returns when ctx is
// done (ctx.Err()) or the connection fails (wrapping ErrChannelClosed). The
// connection is closed on return.
func (c *WSChannel) Listen(ctx context.Context, fn func(frame []byte)) error {
	conn := c.current()
	if conn == nil {
		return ErrChannelClosed
	}
	defer c.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-stop:
		}
	}()

	if c.ReadTimeout > 0 {
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(c.ReadTimeout))
		})
	}
	if c.PingInterval > 0 {
		go c.pingLoop(conn, stop)
	}

	for {
		if c.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(c.ReadTimeout))
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("WS Read error", slog.String("id", c.id), slog.Any("error", err))
			return fmt.Errorf("%w: %v", ErrChannelClosed, err)
		}
		fn(msg)
	}
}

func (c *WSChannel) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				slog.Warn("WS Ping error", slog.String("id", c.id), slog.Any("error", err))
				c.Close()
				return
			}
		}
	}
}

// Send writes one text frame. There is no queueing: if the connection is
// gone the frame is dropped and ErrChannelClosed returned.
func (c *WSChannel) Send(ctx context.Context, frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn := c.current()
	if conn == nil {
		return ErrChannelClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	deadline := time.Now().Add(c.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetWriteDeadline(deadline)
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("%w: %v", ErrChannelClosed, err)
	}
	return nil
}

// Close sends a close frame and releases the connection.
func (c *WSChannel) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return conn.Close()
}
