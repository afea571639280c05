package httpapi

import (
	"net/http"

	"NeuroQ/logger"
	"NeuroQ/service/chat"
	"NeuroQ/tools/errs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type notifyRequest struct {
	Type      string `json:"type" binding:"required"`
	Content   any    `json:"content"`
	SessionID any    `json:"session_id"`
}

func (n notifyRequest) frame() *chat.Frame {
	return &chat.Frame{Type: n.Type, Content: n.Content, SessionID: n.SessionID}
}

type notifyHandler struct {
	chat     *chat.Server
	relay    RelayPublisher
	presence PresenceLookup
}

// Notify POST /api/v1/notify/:user_id
func (h *notifyHandler) Notify(c *gin.Context) {
	var req notifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	to := c.Param("user_id")
	if h.relay != nil {
		h.publish(c, chat.Envelope{To: to, Frame: req.frame()})
		return
	}
	delivered, err := h.chat.SendTo(to, req.frame())
	if err != nil {
		logger.Warn("[notify] send failed", zap.String("to", to), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadGateway, errs.ErrInternal.WithDetail("send failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivered": delivered})
}

// Broadcast POST /api/v1/broadcast
func (h *notifyHandler) Broadcast(c *gin.Context) {
	var req notifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	if h.relay != nil {
		h.publish(c, chat.Envelope{Frame: req.frame()})
		return
	}
	sent, err := h.chat.Broadcast(req.frame())
	if err != nil {
		// partial failure: the rest were still delivered
		logger.Warn("[broadcast] partial failure", zap.Int("sent", sent), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"sent": sent, "failed": err != nil})
}

func (h *notifyHandler) publish(c *gin.Context, env chat.Envelope) {
	if err := h.relay.Publish(c.Request.Context(), env); err != nil {
		logger.Warn("[notify] relay publish failed", zap.String("to", env.To), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadGateway, errs.ErrInternal.WithDetail("relay unavailable"))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": true})
}

// Presence GET /api/v1/presence/:user_id
func (h *notifyHandler) Presence(c *gin.Context) {
	user := c.Param("user_id")
	if h.presence == nil {
		conn, ok := h.chat.Registry().Lookup(user)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"online": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"online": true, "conn": conn.ID()})
		return
	}
	rec, ok, err := h.presence.Lookup(c.Request.Context(), user)
	if err != nil {
		logger.Warn("[presence] lookup failed", zap.String("user_id", user), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadGateway, errs.ErrInternal.WithDetail("presence unavailable"))
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"online": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"online": true, "node": rec.Node, "conn": rec.ConnID, "ts": rec.Since})
}
