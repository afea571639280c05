package pg

import (
	"context"
	"encoding/json"
	"time"

	"NeuroQ/service/events"
	"NeuroQ/tools/errs"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Config struct {
	DSN      string
	MaxConns int32
}

// NewPool 建连并 Ping，失败时关闭连接池
func NewPool(ctx context.Context, c Config) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(c.DSN)
	if err != nil {
		return nil, errs.WrapMsg(err, "parse postgres dsn")
	}
	if c.MaxConns > 0 {
		pc.MaxConns = c.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, errs.WrapMsg(err, "create postgres pool")
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, errs.WrapMsg(err, "ping postgres")
	}
	return pool, nil
}

// Execer is the part of pgxpool.Pool the sink needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS neuroq_events (
		id         TEXT PRIMARY KEY,
		kind       TEXT NOT NULL,
		user_id    TEXT NOT NULL,
		session_id JSONB,
		payload    JSONB,
		ts         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS neuroq_events_user_ts ON neuroq_events (user_id, ts DESC)`,
	`CREATE INDEX IF NOT EXISTS neuroq_events_kind_ts ON neuroq_events (kind, ts DESC)`,
}

const insertEvent = `INSERT INTO neuroq_events (id, kind, user_id, session_id, payload, ts)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING`

// Sink writes every event as one row; replays of the same id are no-ops.
type Sink struct {
	db Execer
}

func NewSink(db Execer) *Sink { return &Sink{db: db} }

func (s *Sink) Name() string { return "postgres" }

func (s *Sink) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return errs.WrapMsg(err, "ensure schema")
		}
	}
	return nil
}

func (s *Sink) Write(ctx context.Context, ev events.Event) error {
	args, err := rowArgs(ev)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, insertEvent, args...); err != nil {
		return errs.WrapMsg(err, "insert event", "kind", ev.Kind, "id", ev.ID)
	}
	return nil
}

func rowArgs(ev events.Event) ([]any, error) {
	var session, payload []byte
	var err error
	if ev.SessionID != nil {
		if session, err = json.Marshal(ev.SessionID); err != nil {
			return nil, errs.WrapMsg(err, "encode session id", "id", ev.ID)
		}
	}
	if ev.Payload != nil {
		if payload, err = json.Marshal(ev.Payload); err != nil {
			return nil, errs.WrapMsg(err, "encode payload", "id", ev.ID)
		}
	}
	return []any{ev.ID, string(ev.Kind), ev.UserID, session, payload, time.UnixMilli(ev.Ts).UTC()}, nil
}
