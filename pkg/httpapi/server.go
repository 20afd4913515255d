package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/agents/resources"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	statex "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/state"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/pkg/metrics"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Config is loaded with the HTTP prefix.
type Config struct {
	Addr            string        `envconfig:"ADDR" default:":8000"`
	Debug           bool          `envconfig:"DEBUG" default:"false"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" split_words:"true" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" split_words:"true" default:"6m"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" split_words:"true" default:"10s"`
	ServiceName     string        `envconfig:"SERVICE_NAME" split_words:"true" default:"transpectra-logistics-agent"`
}

type Assistant interface {
	HandleMessage(ctx context.Context, threadID, prompt string) (contractx.ChatReply, error)
	Reset(ctx context.Context, threadID string) error
}

type RoutePlanner interface {
	Plan(ctx context.Context, source, destination string) (json.RawMessage, error)
}

type Catalogue interface {
	Products(ctx context.Context) ([]string, error)
}

type Forecaster interface {
	Forecast(ctx context.Context, products []string) (map[string]int, error)
}

type ResourceEstimator interface {
	Estimate(ctx context.Context) (resources.Estimate, error)
}

// Backends groups the services behind the routes. Nil members leave their
// routes unregistered.
type Backends struct {
	Assistant    Assistant
	RoutePlanner RoutePlanner
	Catalogue    Catalogue
	Forecaster   Forecaster
	Resources    ResourceEstimator
}

// NewRouter builds the gin engine with tracing, logging and recovery.
func NewRouter(cfg Config, b Backends) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(requestLogger())

	h := &handlers{b: b}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if b.RoutePlanner != nil {
		r.POST("/route_optimizer", h.routeOptimizer)
	}
	if b.Assistant != nil {
		r.POST("/bot", h.bot)
		r.DELETE("/bot/:thread_id", h.resetThread)
	}
	if b.Catalogue != nil {
		r.GET("/get_products", h.products)
	}
	if b.Forecaster != nil {
		r.POST("/predict_stock", h.predictStock)
	}
	if b.Resources != nil {
		r.GET("/resource_optimizer", h.resourceOptimizer)
	}
	return r
}

// Serve runs the server until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, cfg Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	log.Info().Msg("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.RecordHTTPRequest(route, strconv.Itoa(status))

		evt := log.Info()
		if status >= http.StatusInternalServerError {
			evt = log.Error()
		}
		evt.Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	}
}

// statusFor maps service errors onto transport codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, contractx.ErrGraphState):
		return http.StatusInternalServerError
	case errors.Is(err, contractx.ErrValidation),
		errors.Is(err, statex.ErrInvalidThread):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
