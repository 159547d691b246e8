package health

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gomantics/gitdesk/api/web"
	"github.com/gomantics/gitdesk/config"
	"github.com/gomantics/gitdesk/db"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const statusOK = "ok"

// GetResponse is the health check response
type GetResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Workspace string `json:"workspace"`
}

func Configure(g *echo.Group, l *zap.Logger) {
	g.GET("/health", web.Wrap(Get, l))
}

// Get handles GET /v1/health
func Get(c web.Context) error {
	resp := GetResponse{Status: statusOK, Database: statusOK, Workspace: statusOK}

	if err := db.Ping(c.Request().Context()); err != nil {
		resp.Database = "error: " + err.Error()
		resp.Status = "degraded"
	}
	if err := checkWritable(config.Workspace.Root()); err != nil {
		resp.Workspace = "error: " + err.Error()
		resp.Status = "degraded"
	}

	if resp.Status != statusOK {
		c.L.Warn("health check degraded",
			zap.String("database", resp.Database),
			zap.String("workspace", resp.Workspace),
		)
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.OK(resp)
}

// checkWritable creates dir if needed and writes a temporary file into it.
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".health-*")
	if err != nil {
		return fmt.Errorf("workspace root not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
