package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AymenENSI/Secure-Entry/internal/api/handlers"
	"github.com/AymenENSI/Secure-Entry/internal/api/ws"
	"github.com/AymenENSI/Secure-Entry/internal/auth"
)

type RouterConfig struct {
	APIKey   string
	Store    handlers.ApprovalStore
	Actuator handlers.Actuator
	Events   handlers.EventSink
	EventLog handlers.EventLister
	Images   handlers.ObjectGetter
	DB       handlers.CtxPinger
	MinIO    handlers.CtxPinger
	Bus      handlers.Pinger
	Hub      *ws.Hub
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.MinIO, cfg.Bus)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	approvalH := handlers.NewApprovalHandler(cfg.Store, cfg.Actuator, cfg.Events, cfg.Images)

	// Approval gateways call this path; it predates the /v1 prefix and
	// stays unauthenticated for them.
	r.POST("/approve", approvalH.Approve)

	// API v1 (with optional auth)
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))

	v1.GET("/ws", cfg.Hub.HandleWS)

	v1.POST("/approve", approvalH.Approve)
	v1.GET("/pending", approvalH.ListPending)
	v1.GET("/pending/:id/image", approvalH.PendingImage)

	eventH := handlers.NewEventHandler(cfg.EventLog)
	v1.GET("/events", eventH.List)

	return r
}
