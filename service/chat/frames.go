package chat

import (
	"bytes"
	"encoding/json"
	"io"

	"NeuroQ/tools/errs"

	"github.com/mitchellh/mapstructure"
)

const (
	TypeMessage        = "message"
	TypeTyping         = "typing"
	TypeTypingReceived = "typing_received"
	TypeError          = "error"
	TypeEcho           = "echo"
)

const (
	thinkingText = "AI is thinking..."
	errorText    = "Sorry, I encountered an error. Please try again."
)

// Frame is one JSON message on the socket. SessionID is opaque and keeps
// its original JSON type; it is written as null when absent.
type Frame struct {
	Type      string `json:"type" mapstructure:"type"`
	Content   any    `json:"content,omitempty" mapstructure:"content"`
	SessionID any    `json:"session_id" mapstructure:"session_id"`

	// outbound only
	UserID string `json:"user_id,omitempty" mapstructure:"-"`
	IsAI   bool   `json:"is_ai,omitempty" mapstructure:"-"`

	// decoded object as received
	Raw map[string]any `json:"-" mapstructure:"-"`
}

// ParseFrame decodes one inbound text message. A missing "type" means
// "message"; a null or empty one falls through to echo.
func ParseFrame(data []byte) (*Frame, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, errs.ErrFrameDecode.WrapMsg("invalid json", "err", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errs.ErrFrameDecode.WrapMsg("trailing data after frame")
	}
	if raw == nil {
		return nil, errs.ErrFrameDecode.WrapMsg("frame is not an object")
	}

	f := &Frame{Raw: raw}
	md, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           f,
	})
	if err != nil {
		return nil, errs.Wrap(err)
	}
	if err := md.Decode(raw); err != nil {
		return nil, errs.ErrFrameDecode.WrapMsg("decode frame", "err", err)
	}
	if _, ok := raw["type"]; !ok {
		f.Type = TypeMessage
	}
	return f, nil
}

func EncodeFrame(f *Frame) ([]byte, error) {
	b, err := marshal(f)
	if err != nil {
		return nil, errs.WrapMsg(err, "encode frame", "type", f.Type)
	}
	return b, nil
}

// marshal is json.Marshal without HTML escaping and without the trailing newline.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ---- 服务端下行帧 ----

func TypingFrame(sessionID any) *Frame {
	return &Frame{Type: TypeTyping, Content: thinkingText, SessionID: sessionID}
}

func AIMessageFrame(reply string, sessionID any) *Frame {
	return &Frame{Type: TypeMessage, Content: reply, SessionID: sessionID, IsAI: true}
}

func TypingReceivedFrame(userID string, sessionID any) *Frame {
	return &Frame{Type: TypeTypingReceived, UserID: userID, SessionID: sessionID}
}

// EchoFrame reports an unhandled frame back as "Received: <compact json>".
func EchoFrame(in *Frame) *Frame {
	body, err := marshal(in.Raw)
	if err != nil {
		body = []byte("{}")
	}
	return &Frame{Type: TypeEcho, Content: "Received: " + string(body), SessionID: in.SessionID}
}

func ErrorFrame(sessionID any) *Frame {
	return &Frame{Type: TypeError, Content: errorText, SessionID: sessionID}
}
