package chat

import (
	"bytes"
	"encoding/json"

	"NeuroQ/tools/errs"
)

// Envelope carries a frame between nodes. An empty To means broadcast.
type Envelope struct {
	To    string `json:"to"`
	Frame *Frame `json:"frame"`
}

func DecodeEnvelope(data []byte) (Envelope, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var env Envelope
	if err := dec.Decode(&env); err != nil {
		return Envelope{}, errs.ErrFrameDecode.WrapMsg("decode envelope", "err", err)
	}
	if env.Frame == nil || env.Frame.Type == "" {
		return Envelope{}, errs.ErrFrameDecode.WrapMsg("envelope without frame")
	}
	return env, nil
}

func EncodeEnvelope(env Envelope) ([]byte, error) {
	b, err := marshal(env)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return b, nil
}

// Deliver hands a relayed frame to the local registry. A user that is not
// connected here is not an error.
func (s *Server) Deliver(env Envelope) error {
	if env.Frame == nil {
		return errs.ErrBadRequest.WrapMsg("envelope without frame")
	}
	if env.To == "" {
		_, err := s.Broadcast(env.Frame)
		return err
	}
	_, err := s.SendTo(env.To, env.Frame)
	return err
}
