// Package http exposes the engine over HTTP: the Twilio webhook, the staff
// API and a health check.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"orderbot/internal/generated/servers"
	"orderbot/internal/pkg/auth"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/swaggo/swag"
)

// Pinger reports whether the storage is reachable.
type Pinger func(ctx context.Context) error

type RouterConfig struct {
	Server    *Server
	Webhook   *TwilioWebhook
	Tokens    *auth.TokenManager
	Health    Pinger
	Logger    *slog.Logger
	BodyLimit string
}

// NewRouter wires every route onto a fresh echo instance.
func NewRouter(cfg RouterConfig) (*echo.Echo, error) {
	if err := registerDocs(); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	limit := cfg.BodyLimit
	if limit == "" {
		limit = "1M"
	}
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(limit))
	e.Use(requestLogger(cfg.Logger))

	e.GET("/health", health(cfg.Health))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if cfg.Webhook != nil {
		e.POST("/webhooks/twilio", cfg.Webhook.Handle)
	}

	api := e.Group("", StaffAuth(cfg.Tokens))
	servers.RegisterHandlers(api, cfg.Server)
	return e, nil
}

func health(ping Pinger) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if ping != nil {
			pctx, cancel := context.WithTimeout(ctx.Request().Context(), 2*time.Second)
			defer cancel()
			if err := ping(pctx); err != nil {
				return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	logger = logger.With("component", "http")
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURIPath: true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"path", v.URIPath,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				logger.WarnContext(c.Request().Context(), "request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.DebugContext(c.Request().Context(), "request", attrs...)
			return nil
		},
	})
}

// apiDoc serves the embedded OpenAPI document to the swagger UI.
type apiDoc struct {
	json string
}

func (d apiDoc) ReadDoc() string { return d.json }

var (
	docsOnce sync.Once
	docsErr  error
)

func registerDocs() error {
	docsOnce.Do(func() {
		swagger, err := servers.GetSwagger()
		if err != nil {
			docsErr = err
			return
		}
		raw, err := json.Marshal(swagger)
		if err != nil {
			docsErr = err
			return
		}
		swag.Register(swag.Name, apiDoc{json: string(raw)})
	})
	return docsErr
}
