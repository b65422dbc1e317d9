package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute
)

// Conn serializes writes to a gorilla connection, which supports one
// concurrent writer. Reads stay on the handler goroutine.
type Conn struct {
	ws        *websocket.Conn
	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps ws.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func (c *Conn) WriteTyped(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func (c *Conn) WriteError(code, errMsg string) error {
	return c.WriteTyped(ErrorResponse{
		Event: EventError,
		Code:  code,
		Error: errMsg,
	})
}

// ReadJSON reads and decodes a message into the provided structure.
// It sets a read deadline.
func (c *Conn) ReadJSON(v interface{}) error {
	c.ws.SetReadDeadline(time.Now().Add(readWait))
	return c.ws.ReadJSON(v)
}

// Close closes the underlying connection once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.mu.Unlock()
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
