package natsx

import (
	"context"
	"time"

	"NeuroQ/logger"
	"NeuroQ/service/chat"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const BizRelay = "relay"

// Deliverer is the local side of the relay, normally *chat.Server.
type Deliverer interface {
	Deliver(env chat.Envelope) error
}

// Relay fans direct sends and broadcasts out to every gateway node. Each
// node subscribes without a queue group so all nodes see every envelope
// and deliver to the users connected locally.
type Relay struct {
	c *Client
	p *Producer
}

func NewRelay(c *Client, subject string) (*Relay, error) {
	if err := c.RegisterRoute(Route{Biz: BizRelay, Subject: subject, Mode: Core}); err != nil {
		return nil, err
	}
	return &Relay{c: c, p: NewProducer(c)}, nil
}

func (r *Relay) Publish(ctx context.Context, env chat.Envelope) error {
	b, err := chat.EncodeEnvelope(env)
	if err != nil {
		return err
	}
	return r.p.Publish(ctx, BizRelay, "", b, map[string]string{HeaderMsgID: uuid.NewString()})
}

// Start subscribes and hands every envelope to d.
func (r *Relay) Start(d Deliverer) error {
	cs := NewConsumer(r.c, IdemMiddleware(NewMemIdem(time.Minute), time.Minute))
	return cs.Subscribe(BizRelay, RelayHandler(d))
}

func RelayHandler(d Deliverer) Handler {
	return func(_ context.Context, msg Message) error {
		env, err := chat.DecodeEnvelope(msg.Data)
		if err != nil {
			logger.Warn("[relay] bad envelope", zap.String("subject", msg.Subject), zap.Error(err))
			return err
		}
		if err := d.Deliver(env); err != nil {
			logger.Warn("[relay] deliver failed", zap.String("to", env.To), zap.Error(err))
			return err
		}
		return nil
	}
}
