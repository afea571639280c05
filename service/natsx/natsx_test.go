package natsx

import (
	"context"
	"errors"
	"testing"
	"time"

	"NeuroQ/service/chat"
	"NeuroQ/service/events"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	assert.Equal(t, Core, ParseMode(""))
	assert.Equal(t, Core, ParseMode("core"))
	assert.Equal(t, JetStreamPush, ParseMode("JS_PUSH"))
}

func TestChainOrder(t *testing.T) {
	var trace []string
	mw := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, m Message) error {
				trace = append(trace, name)
				return next(ctx, m)
			}
		}
	}
	h := Chain(func(context.Context, Message) error {
		trace = append(trace, "h")
		return nil
	}, mw("a"), mw("b"))
	require.NoError(t, h(context.Background(), Message{}))
	assert.Equal(t, []string{"a", "b", "h"}, trace)
}

func TestIdemMiddleware(t *testing.T) {
	calls := 0
	h := Chain(func(context.Context, Message) error { calls++; return nil },
		IdemMiddleware(NewMemIdem(time.Minute), 0))

	ctx := context.Background()
	_ = h(ctx, Message{Subject: "s", Header: map[string]string{HeaderMsgID: "1"}})
	_ = h(ctx, Message{Subject: "s", Header: map[string]string{HeaderMsgID: "1"}})
	_ = h(ctx, Message{Subject: "s", Header: map[string]string{HeaderMsgID: "2"}})
	_ = h(ctx, Message{Subject: "s", Data: []byte("x")})
	_ = h(ctx, Message{Subject: "s", Data: []byte("x ")})
	assert.Equal(t, 3, calls)
}

func TestMemIdem_Expiry(t *testing.T) {
	now := time.Unix(1000, 0)
	mi := NewMemIdem(time.Second)
	mi.now = func() time.Time { return now }

	seen, _ := mi.SeenOnce("k", 0)
	assert.False(t, seen)
	seen, _ = mi.SeenOnce("k", 0)
	assert.True(t, seen)

	now = now.Add(2 * time.Second)
	seen, _ = mi.SeenOnce("k", 0)
	assert.False(t, seen)
}

func TestHeaders(t *testing.T) {
	m := newMsg("a.b", []byte("x"), map[string]string{HeaderMsgID: "id-1"})
	assert.Equal(t, "id-1", m.Header.Get(HeaderMsgID))
	assert.Equal(t, map[string]string{HeaderMsgID: "id-1"}, headerToMap(m.Header))
	assert.Nil(t, headerToMap(nats.Header{}))
	assert.Equal(t, "neuroq.events.triage.result", EventSubject("neuroq.events", events.KindTriage))
}

type recDeliverer struct {
	got []chat.Envelope
	err error
}

func (r *recDeliverer) Deliver(env chat.Envelope) error {
	r.got = append(r.got, env)
	return r.err
}

func TestRelayHandler(t *testing.T) {
	d := &recDeliverer{}
	h := RelayHandler(d)
	b, err := chat.EncodeEnvelope(chat.Envelope{To: "42", Frame: &chat.Frame{Type: "notice", Content: "hi"}})
	require.NoError(t, err)

	require.NoError(t, h(context.Background(), Message{Data: b}))
	require.Len(t, d.got, 1)
	assert.Equal(t, "42", d.got[0].To)

	assert.Error(t, h(context.Background(), Message{Data: []byte("junk")}))

	d.err = errors.New("closed")
	assert.Error(t, h(context.Background(), Message{Data: b}))
}
