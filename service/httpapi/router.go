package httpapi

import (
	"context"
	"net/http"

	mid "NeuroQ/middleware"
	midsec "NeuroQ/middleware/security"
	"NeuroQ/module/triage"
	"NeuroQ/service/chat"
	"NeuroQ/service/events"
	"NeuroQ/service/metrics"
	"NeuroQ/service/storage"
	"NeuroQ/tools/security"

	"github.com/gin-gonic/gin"
)

const Version = "1.0.0"

// RelayPublisher sends an envelope to every gateway node, this one included.
type RelayPublisher interface {
	Publish(ctx context.Context, env chat.Envelope) error
}

// PresenceLookup answers whether a user is online anywhere in the cluster.
type PresenceLookup interface {
	Lookup(ctx context.Context, userID string) (storage.PresenceRecord, bool, error)
}

type Deps struct {
	Chat           *chat.Server
	Predictor      triage.Predictor
	Events         events.Publisher
	Resolver       midsec.Resolver // should also implement midsec.RoleResolver for the push routes
	Relay          RelayPublisher  // nil: deliver on this node only
	Presence       PresenceLookup  // nil: answer from the local registry
	AllowedOrigins []string
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mid.AccessLog())

	chain := mid.NewChain(mid.CORS(d.AllowedOrigins))
	r.Use(chain.Use())

	auth := mid.RouteOpt{IsAuth: true, Auth: midsec.Middleware(midsec.DefaultOptions(d.Resolver))}
	// 推送类接口只对运维/服务凭证开放
	opOpts := midsec.DefaultOptions(d.Resolver)
	opOpts.Role = security.RoleOperator
	operator := mid.RouteOpt{IsAuth: true, Auth: midsec.Middleware(opOpts)}
	open := mid.RouteOpt{}

	mid.GET(r, "/", Root, open)
	mid.GET(r, "/health", Health, open)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/ws/:token", d.Chat.HandleWS)

	v1 := r.Group("/api/v1")
	th := triage.NewHandler(d.Predictor, d.Events)
	mid.POST(v1, "/symptoms/predict", th.Predict, auth)

	nh := &notifyHandler{chat: d.Chat, relay: d.Relay, presence: d.Presence}
	mid.POST(v1, "/notify/:user_id", nh.Notify, operator)
	mid.POST(v1, "/broadcast", nh.Broadcast, operator)
	mid.GET(v1, "/presence/:user_id", nh.Presence, operator)
	return r
}

func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to NeuroQ API",
		"version": Version,
		"status":  "healthy",
	})
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "message": "API is running"})
}
