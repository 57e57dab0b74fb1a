package api

import (
	"github.com/gin-gonic/gin"

	"examprep/internal/api/controllers"
)

func RegisterRoutes(r *gin.Engine,
	testsController *controllers.TestSessionController,
	attemptsController *controllers.AttemptController,
	healthController *controllers.HealthController) {

	r.GET("/health", healthController.Health)

	testsGroup := r.Group("/tests")
	testsGroup.POST("", testsController.StartTest)
	testsGroup.GET("/:id", testsController.GetTest)
	testsGroup.DELETE("/:id", testsController.Discard)
	testsGroup.POST("/:id/retry", testsController.RetryLoad)
	testsGroup.PUT("/:id/answers", testsController.SelectAnswer)
	testsGroup.POST("/:id/navigate", testsController.Navigate)
	testsGroup.POST("/:id/jump", testsController.Jump)
	testsGroup.POST("/:id/submit", testsController.Submit)
	testsGroup.GET("/:id/review", testsController.Review)

	attemptsGroup := r.Group("/attempts")
	attemptsGroup.GET("", attemptsController.ListAttempts)
}
