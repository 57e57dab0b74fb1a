package controllers_fx

import (
	"go.uber.org/fx"

	"examprep/internal/api/controllers"
)

var Module = fx.Options(
	fx.Provide(controllers.NewHealthController))
