//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/circulabot/internal/bootstrap"
	"github.com/yanqian/circulabot/internal/domain/advisor"
	"github.com/yanqian/circulabot/internal/infra/config"
	httpiface "github.com/yanqian/circulabot/internal/interface/http"
	"github.com/yanqian/circulabot/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAdvisorConfig,
		provideContingencySource,
		provideReportStore,
		provideCheckRepository,
		provideSnapshotArchive,
		provideNotifiers,
		advisor.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
