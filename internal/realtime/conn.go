package realtime

import (
	"servicely/pkg/logger"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"
)

// wsConn queues outbound frames and drains them from a single writer
// goroutine, so emitters never wait on a slow socket.
type wsConn struct {
	id        string
	userID    string
	ws        *websocket.Conn
	outbox    chan Frame
	done      chan struct{}
	closeOnce sync.Once
	log       *logger.Logger
}

func newWSConn(ws *websocket.Conn, userID string, buffer int, log *logger.Logger) *wsConn {
	id := uuid.NewString()
	return &wsConn{
		id:     id,
		userID: userID,
		ws:     ws,
		outbox: make(chan Frame, buffer),
		done:   make(chan struct{}),
		log:    log.With("conn_id", id),
	}
}

func (c *wsConn) ID() string {
	return c.id
}

func (c *wsConn) Send(frame Frame) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.outbox <- frame:
		return true
	case <-c.done:
		return false
	default:
		c.log.Warn("Realtime outbox full, dropping frame", "event", frame.Event)
		return false
	}
}

func (c *wsConn) writeLoop() {
	for {
		select {
		case frame := <-c.outbox:
			if err := websocket.JSON.Send(c.ws, frame); err != nil {
				c.log.Debug("Realtime write failed", "event", frame.Event, "error", err)
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *wsConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}
