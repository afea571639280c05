package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"NeuroQ/service/events"
	"NeuroQ/tools/errs"

	"github.com/redis/go-redis/v9"
)

// Event log: Redis Streams, one stream per event kind.

func StreamKey(kind events.Kind) string {
	return fmt.Sprintf("neuroq:events:%s", kind)
}

type StreamSink struct {
	rdb    redis.UniversalClient
	maxLen int64
}

func NewStreamSink(rdb redis.UniversalClient, maxLen int64) *StreamSink {
	if maxLen <= 0 {
		maxLen = 100_000
	}
	return &StreamSink{rdb: rdb, maxLen: maxLen}
}

func (s *StreamSink) Name() string { return "redis-stream" }

func (s *StreamSink) Write(ctx context.Context, ev events.Event) error {
	values, err := streamValues(ev)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{Stream: StreamKey(ev.Kind), Values: values, Approx: true, MaxLen: s.maxLen}
	if err := s.rdb.XAdd(ctx, args).Err(); err != nil {
		return errs.WrapMsg(err, "xadd", "kind", ev.Kind, "id", ev.ID)
	}
	return nil
}

// streamValues flattens an event into string fields; payload and session
// id travel as JSON so their types survive.
func streamValues(ev events.Event) (map[string]any, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return nil, errs.WrapMsg(err, "encode payload", "id", ev.ID)
	}
	session, err := json.Marshal(ev.SessionID)
	if err != nil {
		return nil, errs.WrapMsg(err, "encode session id", "id", ev.ID)
	}
	return map[string]any{
		"id":         ev.ID,
		"kind":       string(ev.Kind),
		"user_id":    ev.UserID,
		"session_id": string(session),
		"ts":         ev.Ts,
		"payload":    string(payload),
	}, nil
}
