package server

import (
	"time"

	"github.com/gorilla/websocket"

	"quote-relay/src/models"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	wsWriteWait    = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// -----------------------------------------------------------------------------
// WsClient Structure
// -----------------------------------------------------------------------------

type WsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan models.MPublishedQuote
}

// -----------------------------------------------------------------------------
// readPump - discards incoming messages, acts as a watchdog for the
// connection.
// -----------------------------------------------------------------------------

func (c *WsClient) readPump() {
	defer func() {
		c.hub.dropClient(c)
		c.conn.Close()
		c.hub.Logger.Info("websocket client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.Logger.Info("websocket error: %v", err)
			}
			break
		}
		// The stream is one-way; client messages are ignored.
	}
}

// -----------------------------------------------------------------------------
// writePump - sends quotes to the client
// -----------------------------------------------------------------------------

func (c *WsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case q, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(q); err != nil {
				c.hub.Logger.Info("websocket write error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
