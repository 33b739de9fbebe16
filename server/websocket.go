package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/drake/relay/chat"
)

const (
	wsPath        = apiPrefix + "/websocket"
	pingInterval  = 30 * time.Second
	readDeadline  = 90 * time.Second
	backoffFloor  = time.Second
	backoffCeil   = 30 * time.Second
	dialTimeout   = 10 * time.Second
	writeDeadline = 10 * time.Second
)

// wsFrame is the server's websocket envelope.
type wsFrame struct {
	Event     string         `json:"event"`
	Data      map[string]any `json:"data"`
	Broadcast struct {
		ChannelID string `json:"channel_id"`
		TeamID    string `json:"team_id"`
		UserID    string `json:"user_id"`
	} `json:"broadcast"`
	Seq int64 `json:"seq"`
}

// Listen runs the real-time connection until ctx ends, reconnecting with
// exponential backoff. Connection lifecycle shows up on the event channel as
// EventConnected/EventDisconnected; everything else as EventPush.
func (c *Client) Listen(ctx context.Context) {
	backoff := backoffFloor
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := c.dial(ctx)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, backoffCeil)
			continue
		}

		backoff = backoffFloor
		c.connected.Store(true)
		c.post(ctx, chat.Event{Type: chat.EventConnected})

		c.readFrames(ctx, conn)

		c.connected.Store(false)
		c.reconnects.Add(1)
		c.post(ctx, chat.Event{Type: chat.EventDisconnected})
		conn.Close()
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	u := strings.Replace(c.baseURL, "http", "ws", 1) + wsPath

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	header := http.Header{"Authorization": {"Bearer " + c.token}}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, resp, err := dialer.DialContext(dialCtx, u, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// readFrames pumps frames until the connection breaks or ctx ends.
func (c *Client) readFrames(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				conn.Close()
				return
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		var frame wsFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		if frame.Event == "" {
			continue // seq acks and hello frames carry no event
		}
		c.post(ctx, chat.Event{Type: chat.EventPush, Push: &chat.ServerEvent{
			Action:    frame.Event,
			TeamID:    frame.Broadcast.TeamID,
			ChannelID: frame.Broadcast.ChannelID,
			UserID:    frame.Broadcast.UserID,
			Data:      frame.Data,
		}})
	}
}
