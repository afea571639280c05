package handlers

import (
	"NeuroQ/module/responder"
	"NeuroQ/service/chat"
	"NeuroQ/service/events"
)

// MessageHandler answers a chat message: typing indicator first, then the
// AI reply on the same connection and session.
type MessageHandler struct {
	r responder.Responder
}

func NewMessageHandler(r responder.Responder) chat.Handler { return &MessageHandler{r: r} }

func (h *MessageHandler) Type() string { return chat.TypeMessage }

func (h *MessageHandler) Handle(ctx *chat.Context, f *chat.Frame) error {
	if err := ctx.Reply(chat.TypingFrame(f.SessionID)); err != nil {
		return err
	}
	reply := h.r.Respond(messageContent(f), ctx.UserID)
	if err := ctx.Reply(chat.AIMessageFrame(reply, f.SessionID)); err != nil {
		return err
	}
	ctx.Publish(events.New(events.KindChatMessage, ctx.UserID, f.SessionID, map[string]any{
		"conn_id": ctx.Conn.ID(),
		"content": f.Content,
		"reply":   reply,
	}))
	return nil
}

// messageContent 没有 content 字段按空文本处理；显式 null 或非字符串保持原样
func messageContent(f *chat.Frame) any {
	if f.Content != nil {
		return f.Content
	}
	if _, ok := f.Raw["content"]; ok {
		return nil
	}
	return ""
}
