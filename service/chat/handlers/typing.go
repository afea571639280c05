package handlers

import "NeuroQ/service/chat"

type TypingHandler struct{}

func NewTypingHandler() chat.Handler { return TypingHandler{} }

func (TypingHandler) Type() string { return chat.TypeTyping }

func (TypingHandler) Handle(ctx *chat.Context, f *chat.Frame) error {
	return ctx.Reply(chat.TypingReceivedFrame(ctx.UserID, f.SessionID))
}
