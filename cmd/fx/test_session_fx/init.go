package test_session_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"examprep/internal/api/controllers"
	"examprep/internal/config"
	"examprep/internal/exam"
	"examprep/internal/services"
	mem "examprep/pkg/memcache"
)

var Module = fx.Options(
	fx.Provide(provideTestSessionService, provideTestSessionController, provideSessionJanitor),
	fx.Invoke(startSessionJanitor),
)

func provideTestSessionService(
	lc fx.Lifecycle,
	cfg *config.Config,
	source exam.QuestionSource,
	sink exam.ResultSink,
	store *mem.Store[*exam.Session],
	log *zap.Logger,
) services.TestSessionServiceInterface {
	svc := services.NewTestSessionService(source, sink, store, services.SessionSettings{
		Budget:         cfg.TestDuration,
		PersistTimeout: cfg.ResultPersistTimeout,
		IdleTTL:        cfg.SessionIdleTTL,
	}, log)
	lc.Append(fx.StopHook(svc.Shutdown))
	return svc
}

func provideTestSessionController(svc services.TestSessionServiceInterface) *controllers.TestSessionController {
	return controllers.NewTestSessionController(svc)
}

func provideSessionJanitor(cfg *config.Config, svc services.TestSessionServiceInterface, log *zap.Logger) *services.SessionJanitor {
	return services.NewSessionJanitor(svc, cfg.JanitorSchedule, log)
}

func startSessionJanitor(lc fx.Lifecycle, janitor *services.SessionJanitor) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return janitor.Start()
		},
		OnStop: janitor.Stop,
	})
}
