package pg

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"NeuroQ/service/events"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	sql  string
	args []any
}

type fakeExec struct {
	calls []call
	err   error
}

func (f *fakeExec) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, call{sql: sql, args: args})
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestSink_Write(t *testing.T) {
	db := &fakeExec{}
	s := NewSink(db)
	ev := events.Event{
		ID: "e1", Kind: events.KindTriage, UserID: "u1", SessionID: "s1",
		Payload: map[string]any{"severity_level": "mild"}, Ts: 1700000000000,
	}
	require.NoError(t, s.Write(context.Background(), ev))

	require.Len(t, db.calls, 1)
	args := db.calls[0].args
	assert.Equal(t, "e1", args[0])
	assert.Equal(t, "triage.result", args[1])
	assert.Equal(t, "u1", args[2])
	assert.JSONEq(t, `"s1"`, string(args[3].([]byte)))
	assert.JSONEq(t, `{"severity_level":"mild"}`, string(args[4].([]byte)))
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), args[5])
}

func TestSink_NullColumns(t *testing.T) {
	args, err := rowArgs(events.Event{ID: "e2", Kind: events.KindSessionOpen, UserID: "u1"})
	require.NoError(t, err)
	assert.Nil(t, args[3])
	assert.Nil(t, args[4])
}

func TestSink_Errors(t *testing.T) {
	db := &fakeExec{err: errors.New("conn refused")}
	s := NewSink(db)
	assert.Error(t, s.EnsureSchema(context.Background()))
	assert.Error(t, s.Write(context.Background(), events.Event{ID: "e3"}))
}

func TestSink_Postgres(t *testing.T) {
	dsn := os.Getenv("NEUROQ_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("NEUROQ_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, Config{DSN: dsn, MaxConns: 2})
	require.NoError(t, err)
	defer pool.Close()

	s := NewSink(pool)
	require.NoError(t, s.EnsureSchema(ctx))
	ev := events.New(events.KindChatMessage, "u-pg", "s1", map[string]any{"content": "hi"})
	require.NoError(t, s.Write(ctx, ev))
	require.NoError(t, s.Write(ctx, ev))

	var n int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM neuroq_events WHERE id = $1", ev.ID).Scan(&n))
	assert.Equal(t, 1, n)
}
