package storage

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"NeuroQ/service/events"
	rdbx "NeuroQ/service/storage/redis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamValues(t *testing.T) {
	ev := events.New(events.KindChatMessage, "42", json.Number("7"), map[string]any{"reply": "hi"})
	v, err := streamValues(ev)
	require.NoError(t, err)
	assert.Equal(t, "42", v["user_id"])
	assert.Equal(t, "7", v["session_id"])
	assert.JSONEq(t, `{"reply":"hi"}`, v["payload"].(string))
	assert.Equal(t, "neuroq:events:chat.message", StreamKey(ev.Kind))
	assert.Equal(t, "neuroq:presence:42", presenceKey("42"))
}

// 需要本地 Redis：NEUROQ_TEST_REDIS_ADDR=localhost:6379
func TestPresence_Redis(t *testing.T) {
	addr := os.Getenv("NEUROQ_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("NEUROQ_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb, err := rdbx.NewClient(ctx, rdbx.Config{Addr: addr})
	require.NoError(t, err)
	defer rdb.Close()

	p := NewPresence(rdb, "node-a", time.Minute)
	user := "presence-test-" + time.Now().Format("150405.000")

	require.NoError(t, p.Online(ctx, user, "c1"))
	require.NoError(t, p.Online(ctx, user, "c2"))

	// stale connection neither extends nor removes the newer record
	require.NoError(t, rdb.PExpire(ctx, presenceKey(user), 5*time.Second).Err())
	require.NoError(t, p.Refresh(ctx, user, "c1"))
	ttl, err := rdb.PTTL(ctx, presenceKey(user)).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, 5*time.Second)
	require.NoError(t, p.Refresh(ctx, user, "c2"))
	ttl, err = rdb.PTTL(ctx, presenceKey(user)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 30*time.Second)

	require.NoError(t, p.Offline(ctx, user, "c1"))
	rec, ok, err := p.Lookup(ctx, user)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "c2", rec.ConnID)
	assert.Equal(t, "node-a", rec.Node)

	require.NoError(t, p.Offline(ctx, user, "c2"))
	_, ok, err = p.Lookup(ctx, user)
	require.NoError(t, err)
	assert.False(t, ok)

	sink := NewStreamSink(rdb, 1000)
	require.NoError(t, sink.Write(ctx, events.New(events.KindSessionOpen, user, nil, nil)))
}
