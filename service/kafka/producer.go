package kafka

import (
	"context"
	"encoding/json"

	"NeuroQ/service/events"
	"NeuroQ/tools/errs"

	"github.com/Shopify/sarama"
)

// NewSyncProducer 连接 brokers 并返回同步生产者
func NewSyncProducer(c Config) (sarama.SyncProducer, error) {
	if len(c.Brokers) == 0 {
		return nil, errs.ErrBadRequest.WrapMsg("kafka brokers missing")
	}
	p, err := sarama.NewSyncProducer(c.Brokers, BuildSaramaConfig(c))
	if err != nil {
		return nil, errs.WrapMsg(err, "kafka producer")
	}
	return p, nil
}

// EventSink writes events to <prefix>.<kind>, keyed by user so one user's
// events stay in order within a partition.
type EventSink struct {
	p      sarama.SyncProducer
	prefix string
}

func NewEventSink(p sarama.SyncProducer, prefix string) *EventSink {
	return &EventSink{p: p, prefix: prefix}
}

func (s *EventSink) Name() string { return "kafka" }

func (s *EventSink) Topic(kind events.Kind) string {
	if s.prefix == "" {
		return string(kind)
	}
	return s.prefix + "." + string(kind)
}

func (s *EventSink) Write(_ context.Context, ev events.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return errs.WrapMsg(err, "encode event", "id", ev.ID)
	}
	msg := &sarama.ProducerMessage{
		Topic: s.Topic(ev.Kind),
		Key:   sarama.StringEncoder(ev.UserID),
		Value: sarama.ByteEncoder(b),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_id"), Value: []byte(ev.ID)},
		},
	}
	if _, _, err := s.p.SendMessage(msg); err != nil {
		return errs.WrapMsg(err, "kafka send", "topic", msg.Topic, "id", ev.ID)
	}
	return nil
}

func (s *EventSink) Close() error { return s.p.Close() }
