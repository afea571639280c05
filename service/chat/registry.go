package chat

import (
	"sync"

	"NeuroQ/logger"
	"NeuroQ/service/metrics"
	"NeuroQ/tools/errs"

	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const supersededReason = "superseded by a newer connection"

// Registry holds every live connection on this node plus at most one
// connection per user. All mutation goes through mu; sends happen outside it.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]Conn // conn_id -> conn
	byUser map[string]Conn // user -> latest conn

	closeSuperseded bool
}

func NewRegistry(closeSuperseded bool) *Registry {
	return &Registry{
		conns:           make(map[string]Conn),
		byUser:          make(map[string]Conn),
		closeSuperseded: closeSuperseded,
	}
}

// Register adds c and, when userID is set, points the user at c
// (last write wins). It returns the connection that was displaced, if any.
func (r *Registry) Register(c Conn, userID string) Conn {
	r.mu.Lock()
	r.conns[c.ID()] = c
	var old Conn
	if userID != "" {
		if prev, ok := r.byUser[userID]; ok && prev.ID() != c.ID() {
			old = prev
		}
		r.byUser[userID] = c
	}
	r.mu.Unlock()

	if old != nil {
		logger.Info("[registry] connection superseded",
			zap.String("user_id", userID), zap.String("old_conn", old.ID()), zap.String("new_conn", c.ID()))
		if r.closeSuperseded {
			// 旧连接的读循环会随之退出并自行 Unregister
			_ = old.Close(websocket.CloseNormalClosure, supersededReason)
		}
	}
	return old
}

// Unregister removes c. The user mapping is dropped only if it still
// points at c, so a stale disconnect never evicts a newer connection.
func (r *Registry) Unregister(c Conn, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, c.ID())
	if userID == "" {
		return
	}
	if cur, ok := r.byUser[userID]; ok && cur.ID() == c.ID() {
		delete(r.byUser, userID)
	}
}

func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[userID]
	return c, ok
}

// Len is the number of live connections, identified or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) Users() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// SendTo delivers f to the user's connection. No mapping is a silent
// no-op (false, nil). A failed send leaves the registry unchanged.
func (r *Registry) SendTo(userID string, f *Frame) (bool, error) {
	c, ok := r.Lookup(userID)
	if !ok {
		return false, nil
	}
	if err := WriteFrame(c, f); err != nil {
		metrics.SendFailures.WithLabelValues("send_to").Inc()
		logger.Warn("[registry] send failed", zap.String("user_id", userID), zap.String("conn_id", c.ID()), zap.Error(err))
		return true, err
	}
	return true, nil
}

// Broadcast sends f to a snapshot of all connections. One failing
// connection does not stop delivery to the rest; failures are combined.
func (r *Registry) Broadcast(f *Frame) (int, error) {
	data, err := EncodeFrame(f)
	if err != nil {
		return 0, err
	}
	snapshot := r.snapshot()

	var (
		sent int
		all  error
	)
	for _, c := range snapshot {
		if e := c.Send(data); e != nil {
			metrics.SendFailures.WithLabelValues("broadcast").Inc()
			logger.Warn("[registry] broadcast send failed", zap.String("conn_id", c.ID()), zap.Error(e))
			all = multierr.Append(all, e)
			continue
		}
		sent++
	}
	return sent, all
}

// CloseAll closes every connection, used on shutdown.
func (r *Registry) CloseAll(code int, reason string) error {
	var all error
	for _, c := range r.snapshot() {
		if e := c.Close(code, reason); e != nil {
			all = multierr.Append(all, errs.WrapMsg(e, "close", "conn_id", c.ID()))
		}
	}
	return all
}

func (r *Registry) snapshot() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}
