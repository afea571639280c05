package natsx

import (
	"context"

	"NeuroQ/tools/errs"

	"github.com/nats-io/nats.go"
)

// Producer 生产端
type Producer struct{ c *Client }

func NewProducer(c *Client) *Producer { return &Producer{c: c} }

// Publish 按 Biz 路由发送；subject 为空时使用路由上的 Subject
func (p *Producer) Publish(ctx context.Context, biz, subject string, data []byte, hdr map[string]string) error {
	r, ok := p.c.route(biz)
	if !ok {
		return errs.ErrNotFound.WrapMsg("route not found", "biz", biz)
	}
	if subject == "" {
		subject = r.Subject
	}
	msg := newMsg(subject, data, hdr)
	switch r.Mode {
	case JetStreamPush:
		if _, err := p.c.js.PublishMsg(msg, nats.Context(ctx)); err != nil {
			return errs.WrapMsg(err, "js publish", "subject", subject)
		}
	default:
		if err := p.c.nc.PublishMsg(msg); err != nil {
			return errs.WrapMsg(err, "publish", "subject", subject)
		}
	}
	return nil
}
