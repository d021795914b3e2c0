package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ueslim/cloudgames-payments/internal/eventstore"
	"github.com/ueslim/cloudgames-payments/internal/interfaces"
	"github.com/ueslim/cloudgames-payments/internal/replay"
	"github.com/ueslim/cloudgames-payments/internal/telemetry"
)

func NewRouter(repo interfaces.PaymentRepository, events eventstore.Repository, rehydrator *replay.Rehydrator) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "payments"})
	})

	paymentHandler := NewPaymentHandler(repo)
	r.GET("/payments/:orderId", paymentHandler.GetByOrderID)

	// Event store introspection
	eventStoreHandler := NewEventStoreHandler(events, rehydrator)
	r.GET("/eventstore/:id", eventStoreHandler.GetByAggregateID)
	r.GET("/eventstore/:id/replay", eventStoreHandler.Replay)
	r.GET("/eventstore/:id/replay/steps", eventStoreHandler.ReplaySteps)
	r.GET("/eventstore/:id/timeline", eventStoreHandler.Timeline)

	return r
}
