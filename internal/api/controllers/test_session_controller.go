package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"examprep/internal/exam"
	"examprep/internal/models/request_models"
	"examprep/internal/models/response_models"
	"examprep/internal/services"
	"examprep/pkg/middleware"
	"examprep/pkg/utils"
)

type TestSessionController struct {
	testSessionService services.TestSessionServiceInterface
}

func NewTestSessionController(testSessionService services.TestSessionServiceInterface) *TestSessionController {
	return &TestSessionController{testSessionService: testSessionService}
}

// StartTest godoc
// @Summary Start a timed test
// @Description Fetch the questions of a subtopic and start the countdown
// @Tags Tests
// @Accept json
// @Produce json
// @Param request body request_models.StartTestRequest true "Subtopic to practice"
// @Success 201 {object} utils.APIResponse{data=response_models.TestSessionResponse}
// @Success 200 {object} utils.APIResponse{data=response_models.TestSessionResponse} "Subtopic has no questions"
// @Failure 400 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse{data=response_models.TestSessionResponse}
// @Router /tests [post]
func (tc *TestSessionController) StartTest(c *gin.Context) {
	var req request_models.StartTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	caller := services.Caller{
		AuthToken: c.GetString(middleware.AuthTokenKey),
		UserID:    c.GetString(middleware.UserIDKey),
	}
	resp, err := tc.testSessionService.StartTest(c.Request.Context(), req.Subtopic, caller)
	if err != nil {
		tc.respondLoadError(c, resp, err)
		return
	}

	if resp.Status == string(exam.StatusEmpty) {
		utils.RespondSuccess(c, resp, "No questions available for this subtopic")
		return
	}
	utils.RespondWithStatus(c, http.StatusCreated, resp, "Test started")
}

// RetryLoad godoc
// @Summary Retry loading questions
// @Description Re-fetch the questions of a test whose load failed
// @Tags Tests
// @Produce json
// @Param id path string true "Test session ID"
// @Success 200 {object} utils.APIResponse{data=response_models.TestSessionResponse}
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse{data=response_models.TestSessionResponse}
// @Router /tests/{id}/retry [post]
func (tc *TestSessionController) RetryLoad(c *gin.Context) {
	resp, err := tc.testSessionService.RetryLoad(c.Request.Context(), c.Param("id"))
	if err != nil {
		tc.respondLoadError(c, resp, err)
		return
	}
	utils.RespondSuccess(c, resp, "Questions loaded")
}

// A failed fetch still returns the session so the client can offer a retry.
func (tc *TestSessionController) respondLoadError(c *gin.Context, resp *response_models.TestSessionResponse, err error) {
	var fetchErr *exam.FetchError
	if errors.As(err, &fetchErr) {
		_ = c.Error(err)
		code, message := utils.ErrorStatus(err)
		utils.RespondErrorWithData(c, code, message, resp)
		return
	}
	utils.HandleServiceError(c, err)
}

// GetTest godoc
// @Summary Get test state
// @Description Current status, countdown, questions and selections of a test
// @Tags Tests
// @Produce json
// @Param id path string true "Test session ID"
// @Success 200 {object} utils.APIResponse{data=response_models.TestSessionResponse}
// @Failure 404 {object} utils.APIResponse
// @Router /tests/{id} [get]
func (tc *TestSessionController) GetTest(c *gin.Context) {
	resp, err := tc.testSessionService.GetTest(c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, resp, "Fetched test successfully")
}

// SelectAnswer godoc
// @Summary Select an answer
// @Description Record the option chosen for a question, replacing any earlier choice
// @Tags Tests
// @Accept json
// @Produce json
// @Param id path string true "Test session ID"
// @Param request body request_models.SelectAnswerRequest true "Question and option"
// @Success 200 {object} utils.APIResponse{data=response_models.TestSessionResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /tests/{id}/answers [put]
func (tc *TestSessionController) SelectAnswer(c *gin.Context) {
	var req request_models.SelectAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	resp, err := tc.testSessionService.SelectAnswer(c.Param("id"), req.QuestionID, req.OptionID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, resp, "Answer saved")
}

// Navigate godoc
// @Summary Move to the previous or next question
// @Tags Tests
// @Accept json
// @Produce json
// @Param id path string true "Test session ID"
// @Param request body request_models.NavigateRequest true "Direction"
// @Success 200 {object} utils.APIResponse{data=response_models.TestSessionResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /tests/{id}/navigate [post]
func (tc *TestSessionController) Navigate(c *gin.Context) {
	var req request_models.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Direction must be next or prev")
		return
	}

	dir := exam.Next
	if req.Direction == "prev" {
		dir = exam.Prev
	}
	resp, err := tc.testSessionService.Navigate(c.Param("id"), dir)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, resp, "")
}

// Jump godoc
// @Summary Jump to a question
// @Tags Tests
// @Accept json
// @Produce json
// @Param id path string true "Test session ID"
// @Param request body request_models.JumpRequest true "Zero-based question index"
// @Success 200 {object} utils.APIResponse{data=response_models.TestSessionResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /tests/{id}/jump [post]
func (tc *TestSessionController) Jump(c *gin.Context) {
	var req request_models.JumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	resp, err := tc.testSessionService.Jump(c.Param("id"), *req.Index)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, resp, "")
}

// Submit godoc
// @Summary Submit a test
// @Description Finish the test early and return its score
// @Tags Tests
// @Produce json
// @Param id path string true "Test session ID"
// @Success 200 {object} utils.APIResponse{data=response_models.TestSessionResponse}
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /tests/{id}/submit [post]
func (tc *TestSessionController) Submit(c *gin.Context) {
	resp, err := tc.testSessionService.Submit(c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, resp, "Test submitted")
}

// Review godoc
// @Summary Review a finished test
// @Description Per-question breakdown with the selected and correct answers
// @Tags Tests
// @Produce json
// @Param id path string true "Test session ID"
// @Success 200 {object} utils.APIResponse{data=response_models.TestReviewResponse}
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /tests/{id}/review [get]
func (tc *TestSessionController) Review(c *gin.Context) {
	resp, err := tc.testSessionService.Review(c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, resp, "Fetched review successfully")
}

// Discard godoc
// @Summary Discard a test
// @Description Stop the timer and drop the session without saving a result
// @Tags Tests
// @Produce json
// @Param id path string true "Test session ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /tests/{id} [delete]
func (tc *TestSessionController) Discard(c *gin.Context) {
	if err := tc.testSessionService.Discard(c.Param("id")); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Test discarded")
}
