package chat

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"NeuroQ/tools/errs"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn is one live transport handle owned by the Registry.
type Conn interface {
	ID() string
	UserID() string
	Send(data []byte) error
	Close(code int, reason string) error
}

// WriteFrame encodes f and sends it on c.
func WriteFrame(c Conn, f *Frame) error {
	b, err := EncodeFrame(f)
	if err != nil {
		return err
	}
	return c.Send(b)
}

// WsConn wraps a gorilla connection. gorilla allows a single concurrent
// writer, so every write goes through mu.
type WsConn struct {
	id        string
	userID    string
	ws        *websocket.Conn
	remote    net.Addr
	writeWait time.Duration
	createdAt time.Time

	mu     sync.Mutex
	closed atomic.Bool
}

func NewWsConn(ws *websocket.Conn, userID string, writeWait time.Duration) *WsConn {
	if writeWait <= 0 {
		writeWait = 5 * time.Second
	}
	return &WsConn{
		id:        uuid.NewString(),
		userID:    userID,
		ws:        ws,
		remote:    ws.RemoteAddr(),
		writeWait: writeWait,
		createdAt: time.Now(),
	}
}

func (c *WsConn) ID() string           { return c.id }
func (c *WsConn) UserID() string       { return c.userID }
func (c *WsConn) Remote() net.Addr     { return c.remote }
func (c *WsConn) CreatedAt() time.Time { return c.createdAt }
func (c *WsConn) Closed() bool         { return c.closed.Load() }

func (c *WsConn) Send(data []byte) error {
	if c.closed.Load() {
		return errs.ErrConnClosed.WrapMsg("send", "conn_id", c.id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
		return errs.WrapMsg(err, "set write deadline", "conn_id", c.id)
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return errs.WrapMsg(err, "write frame", "conn_id", c.id)
	}
	return nil
}

// Close sends a close frame with code and tears down the socket. Only the
// first call has any effect.
func (c *WsConn) Close(code int, reason string) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeWait))
	return c.ws.Close()
}
