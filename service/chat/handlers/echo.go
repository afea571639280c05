package handlers

import "NeuroQ/service/chat"

// EchoHandler is the fallback for frame types nobody handles.
type EchoHandler struct{}

func NewEchoHandler() chat.Handler { return EchoHandler{} }

func (EchoHandler) Type() string { return chat.TypeEcho }

func (EchoHandler) Handle(ctx *chat.Context, f *chat.Frame) error {
	return ctx.Reply(chat.EchoFrame(f))
}
