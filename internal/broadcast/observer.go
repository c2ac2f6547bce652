package broadcast

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/good-yellow-bee/corewatch/internal/metrics"
)

const (
	// writeWait is the deadline for one outbound frame.
	writeWait = 10 * time.Second
	// pongWait is how long to wait for a pong before dropping the peer.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize bounds inbound frames. The stream is push-only;
	// observers are not expected to send anything meaningful.
	maxMessageSize = 1024
)

// observer is one connected WebSocket peer. The ready flag and pending
// buffer are guarded by the hub mutex; everything else is internally
// synchronized.
type observer struct {
	conn *websocket.Conn
	out  chan []byte
	done chan struct{}
	once sync.Once

	ready   bool
	pending [][]byte
}

func newObserver(conn *websocket.Conn) *observer {
	return &observer{
		conn: conn,
		out:  make(chan []byte, observerQueueSize),
		done: make(chan struct{}),
	}
}

// enqueue offers a payload to the outbound queue, dropping it if the
// queue is full. Never blocks.
func (o *observer) enqueue(payload []byte) {
	select {
	case o.out <- payload:
	default:
		metrics.EventsDropped.Inc()
	}
}

// close terminates the connection and releases both pump goroutines.
func (o *observer) close() {
	o.once.Do(func() {
		close(o.done)
		o.conn.Close()
	})
}

// writeLoop drains the outbound queue onto the connection and keeps
// the peer alive with pings.
func (o *observer) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer o.close()

	for {
		select {
		case <-o.done:
			return
		case payload := <-o.out:
			o.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := o.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			o.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := o.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop consumes inbound frames. The stream is push-only, so
// anything the peer sends is logged and discarded; a malformed frame
// never terminates the connection.
func (o *observer) readLoop() {
	defer o.close()

	o.conn.SetReadLimit(maxMessageSize)
	o.conn.SetReadDeadline(time.Now().Add(pongWait))
	o.conn.SetPongHandler(func(string) error {
		o.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, msg, err := o.conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType == websocket.TextMessage && len(msg) > 0 {
			log.Printf("broadcast: ignoring message from %s (%d bytes)", o.conn.RemoteAddr(), len(msg))
		}
	}
}
