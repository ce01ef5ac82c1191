package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ashendes/payplus-connector/internal/config"
	"github.com/ashendes/payplus-connector/internal/metrics"
	"github.com/ashendes/payplus-connector/internal/session"
	"github.com/ashendes/payplus-connector/internal/store"
	"github.com/ashendes/payplus-connector/internal/webhook"
)


// BreakerStater reports the gateway circuit breaker state
type BreakerStater interface {
	BreakerState() string
}

// Handler serves the connector's HTTP endpoints
type Handler struct {
	cfg      *config.Config
	txns     store.TransactionStore
	sessions *session.Service
	webhooks *webhook.Processor
	gateway  BreakerStater
}

// New creates the HTTP handler set
func New(cfg *config.Config, txns store.TransactionStore, sessions *session.Service, webhooks *webhook.Processor, gateway BreakerStater) *Handler {
	return &Handler{
		cfg:      cfg,
		txns:     txns,
		sessions: sessions,
		webhooks: webhooks,
		gateway:  gateway,
	}
}

// Router builds the gin engine with every route registered
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	// ClientIP must come from the connection for LocalOnly to mean anything
	_ = router.SetTrustedProxies(nil)

	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	router.Use(metrics.PrometheusMiddleware(metrics.ServiceName))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	payplus := router.Group("/payplus")
	payplus.GET("/status", h.getStatus)
	payplus.POST("/checkout", h.checkout)
	payplus.POST("/webhook", h.webhook)

	admin := payplus.Group("/transactions")
	if h.cfg.Server.AdminLocalOnly {
		admin.Use(LocalOnly())
	}
	admin.GET("", h.listTransactions)
	admin.GET("/:reference", h.getTransaction)

	return router
}

func (h *Handler) getStatus(c *gin.Context) {
	environment := "sandbox"
	if h.cfg.IsLive() {
		environment = config.EnvironmentLive
	}

	breakerState := "unknown"
	if h.gateway != nil {
		breakerState = h.gateway.BreakerState()
	}

	c.JSON(http.StatusOK, gin.H{
		"service":         metrics.ServiceName,
		"status":          "healthy",
		"environment":     environment,
		"circuit_breaker": breakerState,
		"timestamp":       time.Now().Format(time.RFC3339),
	})
}
