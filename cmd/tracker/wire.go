//go:build wireinject
// +build wireinject

package main

//go:generate go run -mod=mod github.com/google/wire/cmd/wire

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/sora/fundtracker/internal/api"
	"github.com/sora/fundtracker/internal/biz/task"
	"github.com/sora/fundtracker/internal/infra/persistence/commonrepo"
	"github.com/sora/fundtracker/internal/infra/persistence/marketrepo"
	"github.com/sora/fundtracker/internal/infra/persistence/runrepo"
	"github.com/sora/fundtracker/internal/infra/persistence/taskrepo"
	"github.com/sora/fundtracker/internal/pipeline"
	"github.com/sora/fundtracker/internal/pipeline/decision"
	"github.com/sora/fundtracker/internal/pipeline/fetch"
	"github.com/sora/fundtracker/internal/scheduler"
	"github.com/sora/fundtracker/pkg/config"
)

func InitializeApp(logger *zap.Logger, cfg config.Config, db commonrepo.DB) (*App, error) {
	wire.Build(
		NewApp,

		ProvideFetchConfig,
		ProvideDecisionConfig,
		ProvideCalculator,
		ProvideCache,
		ProvideRenderer,
		ProvideTransaction,

		// other
		scheduler.Provider,
		pipeline.Provider,
		fetch.Provider,
		decision.Provider,

		// http api providers
		api.Provider,

		// biz providers
		task.Provider,

		// infra providers
		taskrepo.Provider,
		runrepo.Provider,
		marketrepo.Provider,
	)
	return nil, nil
}
