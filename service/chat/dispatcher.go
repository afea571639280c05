package chat

import (
	"NeuroQ/service/metrics"
	"NeuroQ/tools/errs"
	"NeuroQ/tools/safe"
)

// Dispatcher routes frames by type. Types without a handler go to the
// fallback.
type Dispatcher struct {
	handlers map[string]Handler
	fallback Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register must be called before the server starts; the map is not locked.
func (d *Dispatcher) Register(h Handler) { d.handlers[h.Type()] = h }

func (d *Dispatcher) SetFallback(h Handler) { d.fallback = h }

func (d *Dispatcher) GetHandler(typ string) Handler {
	if h, ok := d.handlers[typ]; ok {
		return h
	}
	return d.fallback
}

// Dispatch runs the handler for f. A panic inside the handler comes back
// as an error.
func (d *Dispatcher) Dispatch(ctx *Context, f *Frame) error {
	h := d.GetHandler(f.Type)
	if h == nil {
		return errs.ErrFrameDispatch.WrapMsg("no handler", "type", f.Type)
	}
	metrics.InboundFrames.WithLabelValues(h.Type()).Inc()
	return safe.Call(func() error { return h.Handle(ctx, f) })
}
