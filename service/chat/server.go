package chat

import (
	"context"
	"net/http"
	"time"

	"NeuroQ/logger"
	"NeuroQ/middleware"
	"NeuroQ/service/events"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Options struct {
	WriteWait       time.Duration
	CloseSuperseded bool
	AllowedOrigins  []string // 为空则不校验 Origin
	ReadBufferSize  int
	WriteBufferSize int
	PresenceRefresh time.Duration // 0 表示不续期
}

type Option func(*Server)

func WithPresence(p Presence) Option { return func(s *Server) { s.presence = p } }

func WithPublisher(p events.Publisher) Option { return func(s *Server) { s.pub = p } }

// Server owns the websocket endpoint and the per-node registry.
type Server struct {
	opts     Options
	registry *Registry
	disp     *Dispatcher
	verifier IdentityVerifier
	presence Presence
	pub      events.Publisher
	upgrader websocket.Upgrader
}

func NewServer(opts Options, verifier IdentityVerifier, disp *Dispatcher, extra ...Option) *Server {
	if opts.WriteWait <= 0 {
		opts.WriteWait = 5 * time.Second
	}
	if opts.ReadBufferSize <= 0 {
		opts.ReadBufferSize = 4096
	}
	if opts.WriteBufferSize <= 0 {
		opts.WriteBufferSize = 4096
	}
	s := &Server{
		opts:     opts,
		registry: NewRegistry(opts.CloseSuperseded),
		disp:     disp,
		verifier: verifier,
		pub:      events.Discard{},
	}
	for _, o := range extra {
		o(s)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  opts.ReadBufferSize,
		WriteBufferSize: opts.WriteBufferSize,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) Registry() *Registry { return s.registry }
func (s *Server) Disp() *Dispatcher   { return s.disp }

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	return middleware.OriginAllowed(s.opts.AllowedOrigins, r.Header.Get("Origin"))
}

// SendTo delivers f to a user connected to this node.
func (s *Server) SendTo(userID string, f *Frame) (bool, error) {
	return s.registry.SendTo(userID, f)
}

func (s *Server) Broadcast(f *Frame) (int, error) {
	return s.registry.Broadcast(f)
}

// Shutdown closes every live connection with going-away.
func (s *Server) Shutdown(_ context.Context) error {
	n := s.registry.Len()
	err := s.registry.CloseAll(websocket.CloseGoingAway, "server shutting down")
	logger.Info("[chat] shutdown", zap.Int("closed", n))
	return err
}
