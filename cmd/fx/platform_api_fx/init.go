package platform_api_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"examprep/internal/config"
	"examprep/internal/exam"
	"examprep/internal/repositories"
	"examprep/internal/services"
)

var Module = fx.Provide(
	providePlatformAPIClient, provideQuestionSource, provideResultSink,
)

func providePlatformAPIClient(cfg *config.Config) services.PlatformAPIClient {
	return services.NewPlatformAPIClient(cfg.PlatformAPIBaseURL, cfg.HTTPClientTimeout)
}

func provideQuestionSource(api services.PlatformAPIClient) exam.QuestionSource {
	return api
}

func provideResultSink(api services.PlatformAPIClient, attempts repositories.AttemptRepository, log *zap.Logger) exam.ResultSink {
	return services.NewResultRecorder(api, attempts, log)
}
