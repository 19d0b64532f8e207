package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/dqrepair/pipeline/internal/config"
	"github.com/dqrepair/pipeline/internal/http/handlers"
	"github.com/dqrepair/pipeline/internal/http/middleware"
	"github.com/dqrepair/pipeline/internal/ledger"
	"github.com/dqrepair/pipeline/internal/llm"
	"github.com/dqrepair/pipeline/internal/sink"
)

// SetupRouterWithCleanup wires the gin router for the detect/apply transport
// shim and returns a cleanup function that releases the shared ledger.
// The cleanup function must be called before exiting.
func SetupRouterWithCleanup(cfg *config.Config, gw llm.Completer, led *ledger.Ledger, logger *slog.Logger) (*gin.Engine, func()) {
	router := gin.Default()
	if err := router.SetTrustedProxies(cfg.ServerTrustedProxies); err != nil {
		slog.Error("failed to set trusted proxies", "error", err)
	}
	router.MaxMultipartMemory = 8 * 1024 * 1024 // 8MB

	// Middleware order matters: CORS first, then RequestID, metrics, then
	// the error handler that turns c.Error() calls into a JSON response.
	router.Use(middleware.CORS(cfg.ServerCORSOrigins))
	router.Use(middleware.RequestID())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.HealthHandler)
	router.GET("/metrics", handlers.MetricsHandler)

	detectHandler := handlers.NewDetectHandler(gw, led, logger, cfg.SoftDeadline, cfg.ImputationColumns)
	applyHandler := handlers.NewApplyHandlerWithProtectedColumns(sink.NewLocalSink(cfg.SinkBaseDir), led, cfg.ProtectedColumnKeywords)

	limited := router.Group("/", middleware.RateLimit(cfg.ServerRateLimit, cfg.ServerRateLimitWindow))
	limited.POST("/detect", detectHandler.Detect)
	limited.POST("/apply", applyHandler.Apply)

	cleanup := func() {
		led.Close()
		slog.Debug("server resources released")
	}

	return router, cleanup
}
