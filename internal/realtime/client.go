package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192

	sendBufferSize = 64
)

// Event is an outbound frame. Ack is set only on replies to a client request.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
	Ack   *int64      `json:"ack,omitempty"`
}

// Client is one websocket connection. Frames are queued on send and written
// by writePump; nothing else writes to conn.
type Client struct {
	ID       string
	UserID   string
	UserName string

	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once

	// guarded by Hub.mu
	rooms map[string]struct{}
}

func NewClient(conn *websocket.Conn, userID, userName string) *Client {
	return newClient(conn, userID, userName, sendBufferSize)
}

func newClient(conn *websocket.Conn, userID, userName string, buffer int) *Client {
	return &Client{
		ID:       uuid.NewString(),
		UserID:   userID,
		UserName: userName,
		conn:     conn,
		send:     make(chan []byte, buffer),
		done:     make(chan struct{}),
		rooms:    make(map[string]struct{}),
	}
}

// Send queues an event for this client only. It reports false when the
// client is closed or its buffer is full.
func (c *Client) Send(event string, data interface{}) bool {
	return c.emit(Event{Event: event, Data: data})
}

func (c *Client) emit(ev Event) bool {
	payload, err := json.Marshal(ev)

	if err != nil {
		return false
	}

	return c.enqueue(payload)
}

func (c *Client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close stops the write pump, which sends a close frame and releases the
// connection. Safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) readPump(handle func([]byte)) error {
	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return err
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()

		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				return err
			}
			return nil
		}

		if messageType == websocket.TextMessage {
			handle(message)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
