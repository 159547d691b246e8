package api

import (
	"net/http"
	"time"

	"github.com/gomantics/gitdesk/api/auth"
	"github.com/gomantics/gitdesk/api/credentials"
	"github.com/gomantics/gitdesk/api/git"
	"github.com/gomantics/gitdesk/api/health"
	"github.com/gomantics/gitdesk/api/repositories"
	"github.com/gomantics/gitdesk/config"
	"github.com/gomantics/gitdesk/domains/gitops"
	"github.com/gomantics/gitdesk/libs/metrics"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewServer builds the echo instance with middleware and every route.
func NewServer(l *zap.Logger, svc *gitops.Service, m *metrics.Metrics, reg *prometheus.Registry) *echo.Echo {
	e := echo.New()
	e.HideBanner = !config.IsDev()
	e.HidePort = !config.IsDev()

	if config.IsDev() {
		e.IPExtractor = echo.ExtractIPDirect()
	} else {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	}

	useMiddleware(e, l, m)

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	v1 := e.Group("/v1")
	health.Configure(v1, l)

	private := v1.Group("", auth.Middleware(auth.Secret()))
	credentials.Configure(private, l)
	repositories.Configure(private, l, svc)
	git.Configure(private, l, svc, git.LimitsFromConfig())

	return e
}

func useMiddleware(e *echo.Echo, l *zap.Logger, m *metrics.Metrics) {
	// request id first so every later log line carries it
	e.Use(middleware.RequestID())

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			l.Error("recovered from panic",
				zap.Error(err),
				zap.ByteString("stack", stack),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return nil
		},
	}))

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency:   true,
		LogRemoteIP:  true,
		LogMethod:    true,
		LogURI:       true,
		LogRoutePath: true,
		LogRequestID: true,
		LogStatus:    true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			m.ObserveRequest(v.Method, v.RoutePath, v.Status, v.Latency)
			l.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	}))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: config.Server.CorsAllowedOrigins(),
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, echo.HeaderOrigin, echo.HeaderXRequestID},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentLength},
		MaxAge:           int((24 * time.Hour).Seconds()),
	}))
}
