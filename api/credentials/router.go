package credentials

import (
	"github.com/gomantics/gitdesk/api/web"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func Configure(g *echo.Group, l *zap.Logger) {
	g.POST("/credentials", web.Wrap(Create, l))
	g.GET("/credentials", web.Wrap(List, l))
	g.DELETE("/credentials/:id", web.Wrap(Delete, l))
}
