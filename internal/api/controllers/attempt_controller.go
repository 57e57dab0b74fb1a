package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"examprep/internal/services"
	"examprep/pkg/utils"
)

type AttemptController struct {
	attemptService services.AttemptServiceInterface
}

func NewAttemptController(attemptService services.AttemptServiceInterface) *AttemptController {
	return &AttemptController{attemptService: attemptService}
}

// ListAttempts godoc
// @Summary List finished attempts
// @Description Paginated history of finished tests, newest first
// @Tags Attempts
// @Produce json
// @Param subtopic query string false "Only attempts of this subtopic"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20) minimum(1) maximum(100)
// @Success 200 {object} utils.APIResponse{data=response_models.AttemptListResponse}
// @Failure 400 {object} utils.APIResponse
// @Router /attempts [get]
func (ac *AttemptController) ListAttempts(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid page number")
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid page size (must be 1-100)")
		return
	}

	attempts, err := ac.attemptService.ListAttempts(c.Request.Context(), c.Query("subtopic"), page, pageSize)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, attempts, "Fetched attempts successfully")
}
