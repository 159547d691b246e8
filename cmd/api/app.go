package main

import (
	"github.com/gomantics/gitdesk/api"
	"github.com/gomantics/gitdesk/config"
	"github.com/gomantics/gitdesk/db"
	"github.com/gomantics/gitdesk/domains/gitops"
	"github.com/gomantics/gitdesk/domains/repos"
	"github.com/gomantics/gitdesk/libs/gitrepo"
	"github.com/gomantics/gitdesk/libs/metrics"
	"github.com/gomantics/gitdesk/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func serve() error {
	app := fx.New(
		fx.Provide(
			logger.New,
			metrics.NewRegistry,
			func(reg *prometheus.Registry) *metrics.Metrics { return metrics.New(reg) },
			newGitService,
		),
		fx.Decorate(func(l *zap.Logger) *zap.Logger {
			return l.With(zap.String("service", "gitdesk"))
		}),
		fx.Invoke(
			db.Init,
			api.Run,
		),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{
				Logger: l,
			}
		}),
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

func newGitService(l *zap.Logger, m *metrics.Metrics) *gitops.Service {
	return gitops.New(l, repos.Store{}, gitrepo.NewExecRunner(config.Git.Binary()), m, gitops.Options{
		Root:        config.Workspace.Root(),
		RemoteName:  config.Git.RemoteName(),
		CloneDepth:  config.Workspace.CloneDepth(),
		CommitStats: config.Git.CommitStats(),
		Author: gitops.Identity{
			Name:  config.Git.AuthorName(),
			Email: config.Git.AuthorName() + "@" + config.Git.AuthorEmailDomain(),
		},
	})
}
