package chat

import (
	"context"
	"net"
	"time"

	"NeuroQ/logger"
	"NeuroQ/service/events"
	"NeuroQ/service/metrics"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const presenceTimeout = 2 * time.Second

// HandleWS GET /ws/:token
//
// Connecting -> Authenticated -> Active -> Closed. The credential is
// resolved once; a bad one is closed with 1008 before any frame is read.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// 常见：非 WebSocket 请求/握手失败
		logger.Infof("[HandleWS] upgrade websocket error: %v", err)
		return
	}

	userID, ok := s.verifier.Resolve(c.Request.Context(), c.Param("token"))
	if !ok {
		metrics.AuthRejected.Inc()
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid credential"),
			time.Now().Add(s.opts.WriteWait))
		_ = ws.Close()
		logger.Info("[HandleWS] auth failed", zap.String("remote", c.Request.RemoteAddr))
		return
	}

	s.serve(NewWsConn(ws, userID, s.opts.WriteWait), ws)
}

func (s *Server) serve(conn *WsConn, ws *websocket.Conn) {
	userID := conn.UserID()
	log := logger.With(zap.String("conn_id", conn.ID()), zap.String("user_id", userID))

	s.registry.Register(conn, userID)
	metrics.ActiveConnections.Inc()
	s.markOnline(conn, log)
	s.pub.Publish(events.New(events.KindSessionOpen, userID, nil, map[string]any{
		"conn_id": conn.ID(),
		"remote":  conn.Remote().String(),
	}))
	log.Info("[WS] active")

	ctx, cancel := context.WithCancel(context.Background())
	if r, ok := s.presence.(PresenceRefresher); ok && s.opts.PresenceRefresh > 0 {
		go s.refreshPresence(ctx, conn, r, log)
	}
	defer func() {
		cancel()
		s.registry.Unregister(conn, userID)
		metrics.ActiveConnections.Dec()
		_ = conn.Close(websocket.CloseNormalClosure, "")
		s.markOffline(conn, log)
		s.pub.Publish(events.New(events.KindSessionClose, userID, nil, map[string]any{
			"conn_id": conn.ID(),
		}))
		log.Info("[WS] closed")
	}()

	// ---- 读循环：无读超时、无心跳，由传输层断开驱动退出 ----
	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) || conn.Closed() {
				log.Info("[WS] peer closed", zap.Error(rerr))
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				log.Info("[WS] read timeout", zap.Error(rerr))
			} else {
				log.Info("[WS] read err", zap.Error(rerr))
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		s.handleFrame(&Context{Context: ctx, Conn: conn, UserID: userID, Log: log, pub: s.pub}, data)
	}
}

// handleFrame never fails the session: any decode or handler error turns
// into an error frame carrying the inbound session id.
func (s *Server) handleFrame(ctx *Context, data []byte) {
	f, err := ParseFrame(data)
	if err != nil {
		metrics.InboundFrames.WithLabelValues("invalid").Inc()
		sample := data
		if len(sample) > 256 {
			sample = sample[:256]
		}
		ctx.Log.Info("[WS] ParseFrame err", zap.Error(err), zap.ByteString("sample", sample), zap.Int("len", len(data)))
		s.replyError(ctx, nil)
		return
	}

	if err := s.disp.Dispatch(ctx, f); err != nil {
		ctx.Log.Warn("[WS] dispatch err", zap.String("type", f.Type), zap.Error(err))
		s.replyError(ctx, f.SessionID)
	}
}

func (s *Server) replyError(ctx *Context, sessionID any) {
	if err := ctx.Reply(ErrorFrame(sessionID)); err != nil {
		metrics.SendFailures.WithLabelValues("reply").Inc()
		ctx.Log.Info("[WS] write error frame failed", zap.Error(err))
	}
}

func (s *Server) markOnline(conn Conn, log *zap.Logger) {
	if s.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	if err := s.presence.Online(ctx, conn.UserID(), conn.ID()); err != nil {
		log.Warn("[WS] presence online failed", zap.Error(err))
	}
}

// refreshPresence keeps the presence record alive for as long as the
// session stays Active.
func (s *Server) refreshPresence(ctx context.Context, conn Conn, r PresenceRefresher, log *zap.Logger) {
	t := time.NewTicker(s.opts.PresenceRefresh)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rctx, cancel := context.WithTimeout(ctx, presenceTimeout)
			err := r.Refresh(rctx, conn.UserID(), conn.ID())
			cancel()
			if err != nil {
				log.Warn("[WS] presence refresh failed", zap.Error(err))
			}
		}
	}
}

func (s *Server) markOffline(conn Conn, log *zap.Logger) {
	if s.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	if err := s.presence.Offline(ctx, conn.UserID(), conn.ID()); err != nil {
		log.Warn("[WS] presence offline failed", zap.Error(err))
	}
}
