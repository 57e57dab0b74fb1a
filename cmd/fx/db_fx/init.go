package db_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"examprep/internal/config"
	"examprep/internal/infra"
	"examprep/internal/repositories"
)

var Module = fx.Provide(provideAttemptRepo)

// Without POSTGRES_URL attempts are not stored locally.
func provideAttemptRepo(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (repositories.AttemptRepository, error) {
	if !cfg.HistoryEnabled() {
		log.Info("POSTGRES_URL not set, attempt history disabled")
		return repositories.NewNoopAttemptRepository(), nil
	}

	db, err := infra.InitPostgresql(cfg.PostgresURL, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(func() {
		infra.ClosePostgresql(db, log)
	}))
	return repositories.NewAttemptRepository(db), nil
}
