package natsx

import (
	"context"
	"encoding/json"

	"NeuroQ/service/events"
	"NeuroQ/tools/errs"
)

const BizEvents = "events"

// EventSink publishes each event as JSON on <prefix>.<kind>.
type EventSink struct {
	p      *Producer
	prefix string
}

func NewEventSink(c *Client, prefix string, mode Mode) (*EventSink, error) {
	err := c.RegisterRoute(Route{Biz: BizEvents, Subject: prefix + ".>", Mode: mode})
	if err != nil {
		return nil, err
	}
	return &EventSink{p: NewProducer(c), prefix: prefix}, nil
}

func (s *EventSink) Name() string { return "nats" }

func (s *EventSink) Write(ctx context.Context, ev events.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return errs.WrapMsg(err, "encode event", "id", ev.ID)
	}
	return s.p.Publish(ctx, BizEvents, EventSubject(s.prefix, ev.Kind), b, map[string]string{HeaderMsgID: ev.ID})
}

func EventSubject(prefix string, kind events.Kind) string {
	return prefix + "." + string(kind)
}
