package handlers

import (
	"NeuroQ/module/responder"
	"NeuroQ/service/chat"
)

// NewDispatcher wires the default frame handlers.
func NewDispatcher(r responder.Responder) *chat.Dispatcher {
	d := chat.NewDispatcher()
	d.Register(NewMessageHandler(r))
	d.Register(NewTypingHandler())
	d.SetFallback(NewEchoHandler())
	return d
}
