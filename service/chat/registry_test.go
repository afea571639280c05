package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type fakeConn struct {
	id      string
	user    string
	sendErr error

	mu        sync.Mutex
	sent      [][]byte
	closed    bool
	closeCode int
}

func newFake(id, user string) *fakeConn { return &fakeConn{id: id, user: user} }

func (f *fakeConn) ID() string     { return f.id }
func (f *fakeConn) UserID() string { return f.user }

func (f *fakeConn) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, append([]byte(nil), data...))
	return nil
}

func (f *fakeConn) Close(code int, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.closeCode = code
	return nil
}

func (f *fakeConn) frames(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.sent))
	for _, b := range f.sent {
		var m map[string]any
		require.NoError(t, json.Unmarshal(b, &m))
		out = append(out, m)
	}
	return out
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestRegistry_LastWriteWins(t *testing.T) {
	r := NewRegistry(false)
	a, b := newFake("a", "u1"), newFake("b", "u1")

	assert.Nil(t, r.Register(a, "u1"))
	got, ok := r.Lookup("u1")
	require.True(t, ok)
	assert.Equal(t, "a", got.ID())

	old := r.Register(b, "u1")
	require.NotNil(t, old)
	assert.Equal(t, "a", old.ID())

	got, _ = r.Lookup("u1")
	assert.Equal(t, "b", got.ID())
	// a is still live until its own disconnect
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 1, r.Users())
	assert.False(t, a.isClosed())
}

func TestRegistry_CloseSuperseded(t *testing.T) {
	r := NewRegistry(true)
	a, b := newFake("a", "u1"), newFake("b", "u1")
	r.Register(a, "u1")
	r.Register(b, "u1")

	assert.True(t, a.isClosed())
	assert.Equal(t, 1000, a.closeCode)
	assert.False(t, b.isClosed())
}

func TestRegistry_StaleUnregisterKeepsNewer(t *testing.T) {
	r := NewRegistry(false)
	a, b := newFake("a", "u1"), newFake("b", "u1")
	r.Register(a, "u1")
	r.Register(b, "u1")

	r.Unregister(a, "u1")
	got, ok := r.Lookup("u1")
	require.True(t, ok)
	assert.Equal(t, "b", got.ID())
	assert.Equal(t, 1, r.Len())

	r.Unregister(b, "u1")
	_, ok = r.Lookup("u1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_AnonymousConnection(t *testing.T) {
	r := NewRegistry(true)
	a := newFake("a", "")
	r.Register(a, "")
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 0, r.Users())
	r.Unregister(a, "")
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_SendTo(t *testing.T) {
	r := NewRegistry(false)
	a := newFake("a", "u1")
	r.Register(a, "u1")

	ok, err := r.SendTo("nobody", TypingFrame("s"))
	assert.False(t, ok)
	assert.NoError(t, err)

	ok, err = r.SendTo("u1", AIMessageFrame("hi", "s1"))
	assert.True(t, ok)
	require.NoError(t, err)
	frames := a.frames(t)
	require.Len(t, frames, 1)
	assert.Equal(t, "message", frames[0]["type"])
	assert.Equal(t, true, frames[0]["is_ai"])

	a.sendErr = errors.New("broken pipe")
	ok, err = r.SendTo("u1", TypingFrame("s"))
	assert.True(t, ok)
	assert.Error(t, err)
	// failure does not remove the mapping
	_, found := r.Lookup("u1")
	assert.True(t, found)
}

func TestRegistry_BroadcastIsolatesFailures(t *testing.T) {
	r := NewRegistry(false)
	var conns []*fakeConn
	for i := 0; i < 5; i++ {
		c := newFake(fmt.Sprintf("c%d", i), fmt.Sprintf("u%d", i))
		conns = append(conns, c)
		r.Register(c, c.user)
	}
	conns[2].sendErr = errors.New("write: broken pipe")

	sent, err := r.Broadcast(&Frame{Type: "notice", Content: "maintenance at 5"})
	assert.Equal(t, 4, sent)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	for i, c := range conns {
		if i == 2 {
			continue
		}
		assert.Len(t, c.frames(t), 1, c.id)
	}
	assert.Equal(t, 5, r.Len())
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry(true)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("u%d", i%5)
			c := newFake(fmt.Sprintf("c%d", i), user)
			r.Register(c, user)
			_, _ = r.Broadcast(TypingFrame(nil))
			_, _ = r.SendTo(user, TypingFrame(nil))
			r.Unregister(c, user)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, r.Users())
}

func TestRegistry_CloseAll(t *testing.T) {
	r := NewRegistry(false)
	a, b := newFake("a", "u1"), newFake("b", "")
	r.Register(a, "u1")
	r.Register(b, "")
	require.NoError(t, r.CloseAll(1001, "bye"))
	assert.True(t, a.isClosed())
	assert.True(t, b.isClosed())
}
