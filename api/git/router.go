// Package git serves the working-copy operations of a repository under
// /v1/repositories/:id.
package git

import (
	"context"
	"fmt"

	"github.com/gomantics/gitdesk/api/web"
	"github.com/gomantics/gitdesk/config"
	"github.com/gomantics/gitdesk/domains/gitops"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Service is the subset of *gitops.Service the handlers call.
type Service interface {
	ListCommits(ctx context.Context, key gitops.Key, branch string, limit int) ([]gitops.Commit, error)
	ListBranches(ctx context.Context, key gitops.Key) ([]gitops.Branch, error)
	ListFiles(ctx context.Context, key gitops.Key, rel string) ([]gitops.FileEntry, error)
	ReadFileContent(ctx context.Context, key gitops.Key, rel string) ([]byte, error)
	GetStatus(ctx context.Context, key gitops.Key) (gitops.RepositoryStatus, error)
	GetStats(ctx context.Context, key gitops.Key) (gitops.Stats, error)

	CreateBranch(ctx context.Context, key gitops.Key, name, from string) (gitops.Branch, error)
	DeleteBranch(ctx context.Context, key gitops.Key, name string) (gitops.OperationResult, error)
	MergeBranch(ctx context.Context, key gitops.Key, source, target string, author gitops.Identity) (gitops.MergeResult, error)
	AddFiles(ctx context.Context, key gitops.Key, paths []string) error
	CommitChanges(ctx context.Context, key gitops.Key, message string, author gitops.Identity) (gitops.OperationResult, error)
	PushChanges(ctx context.Context, key gitops.Key) (gitops.OperationResult, error)

	UploadFile(ctx context.Context, key gitops.Key, dir string, file gitops.Upload) error
	UploadFiles(ctx context.Context, key gitops.Key, dir string, files []gitops.Upload) error
	SaveFile(ctx context.Context, key gitops.Key, rel string, content []byte) error
	CreateDirectory(ctx context.Context, key gitops.Key, rel string) error
	DeleteFile(ctx context.Context, key gitops.Key, rel string) error
	RenameFile(ctx context.Context, key gitops.Key, oldRel, newRel string) error
}

var _ Service = (*gitops.Service)(nil)

// UploadLimits bound multipart uploads.
type UploadLimits struct {
	MaxFileBytes      int64
	MaxFiles          int
	AllowedExtensions []string
}

func LimitsFromConfig() UploadLimits {
	return UploadLimits{
		MaxFileBytes:      config.Upload.MaxFileBytes(),
		MaxFiles:          config.Upload.MaxFiles(),
		AllowedExtensions: config.Upload.AllowedExtensions(),
	}
}

type handler struct {
	svc         Service
	limits      UploadLimits
	emailDomain string
}

// Configure registers the routes on g, which must already authenticate
// callers.
func Configure(g *echo.Group, l *zap.Logger, svc Service, limits UploadLimits) {
	h := &handler{svc: svc, limits: limits, emailDomain: config.Git.AuthorEmailDomain()}

	// multipart overhead on top of the file payloads
	bodyLimit := middleware.BodyLimit(fmt.Sprintf("%dK", (limits.MaxFileBytes*int64(limits.MaxFiles))/1024+1024))

	r := g.Group("/repositories/:id")

	r.GET("/commits", web.Wrap(h.listCommits, l))
	r.GET("/branches", web.Wrap(h.listBranches, l))
	r.POST("/branches", web.Wrap(h.createBranch, l))
	r.DELETE("/branches/:name", web.Wrap(h.deleteBranch, l))
	r.POST("/merge", web.Wrap(h.merge, l))

	r.GET("/files", web.Wrap(h.listFiles, l))
	r.GET("/files/content", web.Wrap(h.readFile, l))
	r.POST("/files/upload", web.Wrap(h.upload, l), bodyLimit)
	r.POST("/files/upload-multiple", web.Wrap(h.uploadMultiple, l), bodyLimit)
	r.PUT("/files/save", web.Wrap(h.saveFile, l))
	r.POST("/directories", web.Wrap(h.createDirectory, l))
	r.DELETE("/files", web.Wrap(h.deleteFile, l))
	r.PUT("/files/rename", web.Wrap(h.renameFile, l))

	r.POST("/add", web.Wrap(h.add, l))
	r.POST("/commit", web.Wrap(h.commit, l))
	r.POST("/push", web.Wrap(h.push, l))
	r.GET("/status", web.Wrap(h.status, l))
	r.GET("/stats", web.Wrap(h.stats, l))
}

func key(c web.Context) gitops.Key {
	return gitops.Key{OwnerID: c.UserID(), RepositoryID: c.Param("id")}
}

// author commits as the caller; an anonymous caller gets the configured
// default identity.
func (h *handler) author(c web.Context) gitops.Identity {
	name := c.Username()
	if name == "" {
		return gitops.Identity{}
	}
	return gitops.Identity{Name: name, Email: name + "@" + h.emailDomain}
}
