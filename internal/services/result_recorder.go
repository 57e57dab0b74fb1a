package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"examprep/internal/exam"
	"examprep/internal/models/db_models"
	"examprep/internal/repositories"
)

// resultRecorder is the sink every finished session reports to. It makes a
// single attempt per destination; callers only log the returned error.
type resultRecorder struct {
	api      PlatformAPIClient
	attempts repositories.AttemptRepository
	log      *zap.Logger
}

func NewResultRecorder(api PlatformAPIClient, attempts repositories.AttemptRepository, log *zap.Logger) exam.ResultSink {
	return &resultRecorder{api: api, attempts: attempts, log: log.Named("result_recorder")}
}

func (r *resultRecorder) SaveResult(ctx context.Context, res exam.Result) error {
	var errs []error

	attempt, err := toAttempt(res)
	if err == nil {
		err = r.attempts.CreateAttempt(ctx, attempt)
	}
	if err != nil {
		errs = append(errs, fmt.Errorf("save attempt history: %w", err))
	}

	signedIn, err := r.api.ProfileExists(ctx, res.Credentials)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("profile check: %w", err))
	case !signedIn:
		r.log.Debug("no student profile, result kept local",
			zap.String("session_id", res.SessionID))
	default:
		if err := r.api.SaveTestResult(ctx, res.Credentials, res.Subtopic, res.Score); err != nil {
			errs = append(errs, err)
		} else {
			r.log.Info("result saved to profile",
				zap.String("session_id", res.SessionID),
				zap.String("subtopic", res.Subtopic))
		}
	}

	return errors.Join(errs...)
}

func toAttempt(res exam.Result) (*db_models.TestAttempt, error) {
	answers := make(map[string]string, len(res.Answers))
	ids := make([]string, 0, len(res.Answers))
	for q, o := range res.Answers {
		answers[string(q)] = string(o)
		ids = append(ids, string(q))
	}
	sort.Strings(ids)

	raw, err := sonic.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}

	return &db_models.TestAttempt{
		SessionID:     res.SessionID,
		UserID:        res.UserID,
		Subtopic:      res.Subtopic,
		Correct:       res.Score.Correct,
		Total:         res.Score.Total,
		Answered:      res.Score.Answered,
		Percentage:    res.Score.Percentage,
		FinishReason:  string(res.FinishReason),
		AnsweredIDs:   ids,
		Answers:       datatypes.JSON(raw),
		FinishedAtSec: res.FinishedAt.Unix(),
	}, nil
}
