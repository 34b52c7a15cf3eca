// Package httpapi exposes the inventory service over a JSON REST API.
package httpapi

import (
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"inventorycore/docs/schema/openapi"
	"inventorycore/internal/adapters/reports"
	"inventorycore/internal/core"
	"inventorycore/internal/infra/idempotency"
)

// RequestObserver records one served request; the Prometheus recorder implements it.
type RequestObserver interface {
	ObserveRequest(route, method string, status int)
}

// Options configures the API. Zero values disable the optional pieces.
type Options struct {
	Logger         zerolog.Logger
	CORSOrigins    []string
	RateLimit      float64
	RateBurst      int
	RequestTimeout time.Duration
	StorageDriver  string

	Idempotency    idempotency.Store
	Reports        *reports.Exporter
	MetricsHandler http.Handler
	Requests       RequestObserver
}

// Handler serves the REST routes over a core.Service.
type Handler struct {
	svc  *core.Service
	opts Options
}

// New builds the echo instance with middleware and every route registered.
func New(svc *core.Service, opts Options) *echo.Echo {
	h := &Handler{svc: svc, opts: opts}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(core.WithRequestID(req.Context(), id)))
		},
	}))
	e.Use(h.requestLogger())
	e.Use(middleware.CORSWithConfig(corsConfig(opts.CORSOrigins)))
	if opts.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(rateLimiterConfig(opts.RateLimit, opts.RateBurst)))
	}
	if opts.RequestTimeout > 0 {
		e.Use(middleware.ContextTimeout(opts.RequestTimeout))
	}

	h.Register(e)
	return e
}

// Register mounts every route on e.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/health", h.health)
	e.GET("/openapi.yaml", h.openAPI)
	if h.opts.MetricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(h.opts.MetricsHandler))
	}

	e.GET("/products", h.listProducts)
	e.GET("/products/:id", h.getProduct)
	e.POST("/products", h.createProduct)
	e.PUT("/products/:id", h.updateProduct)
	e.DELETE("/products/:id", h.deleteProduct)
	e.GET("/products/:id/material-usage", h.listProductUsages)

	e.GET("/raw-materials", h.listRawMaterials)
	e.GET("/raw-materials/:id", h.getRawMaterial)
	e.POST("/raw-materials", h.createRawMaterial)
	e.PUT("/raw-materials/:id", h.updateRawMaterial)
	e.DELETE("/raw-materials/:id", h.deleteRawMaterial)

	e.GET("/material-usage", h.listUsages)
	e.GET("/material-usage/:id", h.getUsage)
	e.POST("/material-usage", h.createUsage)
	e.PUT("/material-usage/:id", h.updateUsage)
	e.DELETE("/material-usage/:id", h.deleteUsage)

	e.POST("/production/:productId/produce/:quantity", h.produce)
	e.GET("/production-check", h.productionCheck)
	e.GET("/production-priority", h.productionPriority)

	if h.opts.Reports != nil {
		e.GET("/reports", h.listReports)
		e.POST("/reports/:kind", h.exportReport)
		e.GET("/reports/:kind/:file", h.downloadReport)
	}
}

func (h *Handler) health(c echo.Context) error {
	body := map[string]string{"status": "ok", "storage": h.opts.StorageDriver}
	if v, err := openapi.Version(); err == nil {
		body["apiVersion"] = v
	}
	return c.JSON(http.StatusOK, body)
}

func (h *Handler) openAPI(c echo.Context) error {
	return c.Blob(http.StatusOK, "application/yaml", openapi.Spec())
}

var localOrigin = regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1)(:\d+)?$`)

// corsConfig allows the configured origins, or any localhost port when none are set.
func corsConfig(origins []string) middleware.CORSConfig {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	_, wildcard := allowed["*"]
	return middleware.CORSConfig{
		AllowOriginFunc: func(origin string) (bool, error) {
			if wildcard {
				return true, nil
			}
			if len(allowed) == 0 {
				return localOrigin.MatchString(origin), nil
			}
			_, ok := allowed[origin]
			return ok, nil
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, echo.HeaderXRequestedWith, headerIdempotencyKey,
		},
		ExposeHeaders: []string{echo.HeaderXRequestID, headerIdempotentReplay},
	}
}

func rateLimiterConfig(limit float64, burst int) middleware.RateLimiterConfig {
	if burst <= 0 {
		burst = int(limit) + 1
	}
	deny := func(c echo.Context, _ string, _ error) error {
		return c.JSON(http.StatusTooManyRequests, messageBody("rate limit exceeded"))
	}
	return middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health" || c.Path() == "/metrics" || c.Path() == "/openapi.yaml"
		},
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(limit),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) { return c.RealIP(), nil },
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, messageBody("unable to identify client"))
		},
		DenyHandler: deny,
	}
}

// requestLogger writes one zerolog event per request and feeds the request observer.
func (h *Handler) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if h.opts.Requests != nil {
				h.opts.Requests.ObserveRequest(v.RoutePath, v.Method, v.Status)
			}
			event := h.opts.Logger.Info()
			if v.Status >= http.StatusInternalServerError {
				event = h.opts.Logger.Error()
			}
			if v.Error != nil {
				event = event.Err(v.Error)
			}
			event.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
