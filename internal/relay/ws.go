package relay

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"gatesphere.dev/internal/obs"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxFrameBytes  = 32 << 10
	sendQueueDepth = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser client connects cross-origin in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn adapts one gorilla connection to the Sender interface. Frames are
// queued on a buffered channel drained by a single writer goroutine; a full
// queue drops the frame instead of blocking the relay.
type wsConn struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func (c *wsConn) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrQueueFull
	case c.send <- data:
		return nil
	default:
		return ErrQueueFull
	}
}

// ServeWS upgrades the request and runs the connection's read loop until the
// peer goes away.
func (r *Relay) ServeWS(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	c := &wsConn{
		conn: conn,
		send: make(chan []byte, sendQueueDepth),
		done: make(chan struct{}),
	}
	connID := r.registry.Register(c)
	obs.WSConnectionOpened()

	go c.writePump()
	r.readPump(req.Context(), connID, c)

	r.registry.Unregister(connID)
	close(c.done)
	_ = conn.Close()
	obs.WSConnectionClosed()
}

func (r *Relay) readPump(ctx context.Context, connID string, c *wsConn) {
	c.conn.SetReadLimit(maxFrameBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		r.HandleFrame(ctx, connID, raw)
	}
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
