// Package repositories serves owner-scoped repository metadata.
package repositories

import (
	"context"

	"github.com/gomantics/gitdesk/api/web"
	"github.com/gomantics/gitdesk/domains/gitops"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Purger removes the working copy of a deleted repository.
type Purger interface {
	Purge(ctx context.Context, key gitops.Key) error
}

type handler struct {
	purger Purger
}

func Configure(g *echo.Group, l *zap.Logger, purger Purger) {
	h := &handler{purger: purger}

	g.POST("/repositories", web.Wrap(Create, l))
	g.GET("/repositories", web.Wrap(List, l))
	g.GET("/repositories/:id", web.Wrap(Get, l))
	g.PATCH("/repositories/:id", web.Wrap(Update, l))
	g.DELETE("/repositories/:id", web.Wrap(h.delete, l))
}
