// Package api assembles the HTTP server.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gomantics/gitdesk/config"
	"github.com/gomantics/gitdesk/domains/gitops"
	"github.com/gomantics/gitdesk/libs/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Run starts the API server with the application and stops it on shutdown.
func Run(lc fx.Lifecycle, l *zap.Logger, svc *gitops.Service, m *metrics.Metrics, reg *prometheus.Registry) error {
	e := NewServer(l, svc, m, reg)

	server := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", config.Server.Port()),
		Handler:           e,
		ReadTimeout:       2 * time.Minute, // multipart uploads
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      5 * time.Minute, // first request on a workspace clones
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				l.Info("starting API server",
					zap.String("addr", server.Addr),
					zap.String("workspace_root", svc.Resolver().Root()),
				)
				if err := e.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
					l.Error("error starting echo server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			l.Info("shutdown signal received")
			return e.Shutdown(ctx)
		},
	})

	return nil
}
