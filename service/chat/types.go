package chat

import (
	"context"

	"NeuroQ/service/events"

	"go.uber.org/zap"
)

type Handler interface {
	Type() string
	Handle(*Context, *Frame) error
}

// Context is what a handler sees for one inbound frame.
type Context struct {
	context.Context
	Conn   Conn
	UserID string
	Log    *zap.Logger
	pub    events.Publisher
}

// Reply writes f back on the connection the frame arrived on.
func (c *Context) Reply(f *Frame) error {
	return WriteFrame(c.Conn, f)
}

func (c *Context) Publish(ev events.Event) {
	if c.pub != nil {
		c.pub.Publish(ev)
	}
}

// IdentityVerifier resolves the credential presented at connect time.
type IdentityVerifier interface {
	Resolve(ctx context.Context, credential string) (string, bool)
}

// Presence records which users are online on which connection.
type Presence interface {
	Online(ctx context.Context, userID, connID string) error
	Offline(ctx context.Context, userID, connID string) error
}

// PresenceRefresher is implemented by presence stores whose records expire.
type PresenceRefresher interface {
	Refresh(ctx context.Context, userID, connID string) error
}
