package unifeeder

import (
	"bufio"
	"io"
	"net"
	"sync"
	"time"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait     = 2 * time.Second
	sendQueueSize = 256
)

// -----------------------------------------------------------------------------
// Client is one authenticated downstream connection. The fan-out path only
// ever touches the buffered send channel, so one stalled client cannot slow
// the others.
// -----------------------------------------------------------------------------

type Client struct {
	id   int
	conn net.Conn
	srv  *Server

	send chan []byte
	done chan struct{}
	once sync.Once
}

// -----------------------------------------------------------------------------

func newClient(id int, conn net.Conn, srv *Server) *Client {
	return &Client{
		id:   id,
		conn: conn,
		srv:  srv,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------

// enqueue hands a framed payload to the write pump. Returns false when the
// client's buffer is full, which marks it too slow to keep.
func (c *Client) enqueue(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// -----------------------------------------------------------------------------

// writePump drains the send queue onto the socket. A write error or a
// teardown signal ends it.
func (c *Client) writePump() {
	for {
		select {
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if _, err := c.conn.Write(payload); err != nil {
				c.srv.log.Error("client %d: send failed: %v", c.id, err)
				c.teardown()
				return
			}
		case <-c.done:
			return
		}
	}
}

// -----------------------------------------------------------------------------

// readPump watches the connection for post-auth messages (Ping) and acts as
// the disconnect watchdog. A framing error tears down only this client.
func (c *Client) readPump(br *bufio.Reader) {
	defer c.teardown()

	for {
		message, err := readMessage(br, c.srv.term)
		if err != nil {
			switch err {
			case io.EOF:
				c.srv.log.Info("client %d disconnected", c.id)
			case ErrUnterminated:
				c.srv.log.Error("client %d: framing error: %v", c.id, err)
			default:
				c.srv.log.Debug("client %d: read ended: %v", c.id, err)
			}
			return
		}

		if message == "> Ping" {
			c.enqueue(frame("> Ping", c.srv.term))
			c.srv.log.Debug("ping from client %d", c.id)
		}
	}
}

// -----------------------------------------------------------------------------

// teardown removes the client from the broadcast set and closes the socket.
// Safe to call from any goroutine, any number of times.
func (c *Client) teardown() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
		c.srv.removeClient(c.id)
	})
}
