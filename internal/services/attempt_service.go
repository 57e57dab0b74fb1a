package services

import (
	"context"
	"fmt"
	"strings"

	"examprep/internal/models/db_models"
	"examprep/internal/models/response_models"
	"examprep/internal/repositories"
	"examprep/pkg/utils"
)

const maxAttemptPageSize = 100

type AttemptServiceInterface interface {
	ListAttempts(ctx context.Context, subtopic string, page, pageSize int) (*response_models.AttemptListResponse, error)
}

type AttemptService struct {
	attemptRepo repositories.AttemptRepository
}

func NewAttemptService(attemptRepo repositories.AttemptRepository) AttemptServiceInterface {
	return &AttemptService{attemptRepo: attemptRepo}
}

func (s *AttemptService) ListAttempts(ctx context.Context, subtopic string, page, pageSize int) (*response_models.AttemptListResponse, error) {
	if page < 1 {
		return nil, utils.ErrInvalidPage
	}
	if pageSize < 1 || pageSize > maxAttemptPageSize {
		return nil, utils.ErrInvalidPageSize
	}

	attempts, total, err := s.attemptRepo.ListAttempts(ctx, strings.TrimSpace(subtopic), page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	resp := &response_models.AttemptListResponse{
		Attempts: make([]response_models.AttemptResponse, 0, len(attempts)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for _, a := range attempts {
		resp.Attempts = append(resp.Attempts, toAttemptResponse(a))
	}
	return resp, nil
}

func toAttemptResponse(a db_models.TestAttempt) response_models.AttemptResponse {
	ids := []string(a.AnsweredIDs)
	if ids == nil {
		ids = []string{}
	}
	return response_models.AttemptResponse{
		ID:        a.ID.String(),
		SessionID: a.SessionID,
		UserID:    a.UserID,
		Subtopic:  a.Subtopic,
		Score: response_models.ScoreResponse{
			Correct:    a.Correct,
			Total:      a.Total,
			Answered:   a.Answered,
			Unanswered: a.Total - a.Answered,
			Percentage: a.Percentage,
		},
		FinishReason: a.FinishReason,
		AnsweredIDs:  ids,
		FinishedAt:   utils.FormatRFC3339(utils.FromUnixSeconds(a.FinishedAtSec)),
	}
}
