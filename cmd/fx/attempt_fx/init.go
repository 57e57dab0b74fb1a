package attempt_fx

import (
	"go.uber.org/fx"

	"examprep/internal/api/controllers"
	"examprep/internal/repositories"
	"examprep/internal/services"
)

var Module = fx.Provide(provideAttemptService, provideAttemptController)

func provideAttemptService(attemptRepo repositories.AttemptRepository) services.AttemptServiceInterface {
	return services.NewAttemptService(attemptRepo)
}

func provideAttemptController(attemptService services.AttemptServiceInterface) *controllers.AttemptController {
	return controllers.NewAttemptController(attemptService)
}
