package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"examprep/internal/exam"
	"examprep/internal/models/response_models"
	mem "examprep/pkg/memcache"
	"examprep/pkg/utils"
)

type TestSessionServiceInterface interface {
	StartTest(ctx context.Context, subtopic string, caller Caller) (*response_models.TestSessionResponse, error)
	RetryLoad(ctx context.Context, sessionID string) (*response_models.TestSessionResponse, error)
	GetTest(sessionID string) (*response_models.TestSessionResponse, error)
	SelectAnswer(sessionID, questionID, optionID string) (*response_models.TestSessionResponse, error)
	Navigate(sessionID string, dir exam.Direction) (*response_models.TestSessionResponse, error)
	Jump(sessionID string, index int) (*response_models.TestSessionResponse, error)
	Submit(sessionID string) (*response_models.TestSessionResponse, error)
	Review(sessionID string) (*response_models.TestReviewResponse, error)
	Discard(sessionID string) error
	EvictIdle() int
	Shutdown()
}

// Caller identifies who started a test; the token is forwarded when the
// result is saved to the student's profile.
type Caller struct {
	AuthToken string
	UserID    string
}

type SessionSettings struct {
	Budget         time.Duration
	PersistTimeout time.Duration
	IdleTTL        time.Duration
	DisableTimer   bool
}

type TestSessionService struct {
	source   exam.QuestionSource
	sink     exam.ResultSink
	sessions *mem.Store[*exam.Session]
	settings SessionSettings
	log      *zap.Logger
}

func NewTestSessionService(
	source exam.QuestionSource,
	sink exam.ResultSink,
	sessions *mem.Store[*exam.Session],
	settings SessionSettings,
	log *zap.Logger,
) TestSessionServiceInterface {
	return &TestSessionService{
		source:   source,
		sink:     sink,
		sessions: sessions,
		settings: settings,
		log:      log.Named("test_sessions"),
	}
}

func (s *TestSessionService) StartTest(ctx context.Context, subtopic string, caller Caller) (*response_models.TestSessionResponse, error) {
	subtopic = strings.TrimSpace(subtopic)
	if subtopic == "" {
		return nil, fmt.Errorf("%w: subtopic is required", utils.ErrInvalidRequest)
	}

	id := uuid.New().String()
	sess := exam.NewSession(id, subtopic, exam.Options{
		Budget:         s.settings.Budget,
		DisableTimer:   s.settings.DisableTimer,
		Sink:           s.sink,
		PersistTimeout: s.settings.PersistTimeout,
		Credentials:    caller.AuthToken,
		UserID:         caller.UserID,
		Logger:         s.log,
	})
	s.sessions.Put(id, sess)

	return s.load(ctx, sess)
}

// RetryLoad re-runs the question fetch for a session whose load failed.
func (s *TestSessionService) RetryLoad(ctx context.Context, sessionID string) (*response_models.TestSessionResponse, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, sess)
}

func (s *TestSessionService) load(ctx context.Context, sess *exam.Session) (*response_models.TestSessionResponse, error) {
	loadErr := sess.Load(ctx, s.source)

	var fetchErr *exam.FetchError
	if loadErr != nil && !errors.As(loadErr, &fetchErr) {
		return nil, loadErr
	}
	resp, err := s.respond(sess)
	if err != nil {
		return nil, err
	}
	return resp, loadErr
}

func (s *TestSessionService) GetTest(sessionID string) (*response_models.TestSessionResponse, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return s.respond(sess)
}

func (s *TestSessionService) SelectAnswer(sessionID, questionID, optionID string) (*response_models.TestSessionResponse, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.SelectAnswer(exam.ID(questionID), exam.ID(optionID)); err != nil {
		return nil, err
	}
	return s.respond(sess)
}

func (s *TestSessionService) Navigate(sessionID string, dir exam.Direction) (*response_models.TestSessionResponse, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := sess.Navigate(dir); err != nil {
		return nil, err
	}
	return s.respond(sess)
}

func (s *TestSessionService) Jump(sessionID string, index int) (*response_models.TestSessionResponse, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := sess.Jump(index); err != nil {
		return nil, err
	}
	return s.respond(sess)
}

func (s *TestSessionService) Submit(sessionID string) (*response_models.TestSessionResponse, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := sess.Submit(); err != nil {
		return nil, err
	}
	return s.respond(sess)
}

func (s *TestSessionService) Review(sessionID string) (*response_models.TestReviewResponse, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	rows, err := sess.Review()
	if err != nil {
		return nil, err
	}
	snap, err := sess.Snapshot()
	if err != nil {
		return nil, err
	}

	resp := &response_models.TestReviewResponse{
		SessionID: sessionID,
		Questions: make([]response_models.ReviewRowResponse, 0, len(rows)),
	}
	if snap.Score != nil {
		resp.Score = toScoreResponse(*snap.Score)
	}
	for _, r := range rows {
		resp.Questions = append(resp.Questions, response_models.ReviewRowResponse{
			QuestionID:     string(r.QuestionID),
			Question:       r.Question,
			SelectedOption: string(r.SelectedOption),
			SelectedText:   r.SelectedText,
			CorrectAnswer:  r.CorrectAnswer,
			Answered:       r.Answered,
			Correct:        r.Correct,
		})
	}
	return resp, nil
}

// Discard drops a session the client navigated away from. A running timer
// stops and nothing is persisted for an unfinished test.
func (s *TestSessionService) Discard(sessionID string) error {
	sess, ok := s.sessions.Delete(sessionID)
	if !ok {
		return fmt.Errorf("%w: %s", utils.ErrSessionNotFound, sessionID)
	}
	sess.Close()
	return nil
}

// EvictIdle closes sessions nobody has touched within the idle TTL.
func (s *TestSessionService) EvictIdle() int {
	evicted := s.sessions.EvictIdle(s.settings.IdleTTL)
	for _, sess := range evicted {
		sess.Close()
	}
	if len(evicted) > 0 {
		s.log.Info("evicted idle test sessions", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}

func (s *TestSessionService) Shutdown() {
	for _, sess := range s.sessions.Drain() {
		sess.Close()
	}
}

func (s *TestSessionService) lookup(sessionID string) (*exam.Session, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", utils.ErrSessionNotFound, sessionID)
	}
	return sess, nil
}

func (s *TestSessionService) respond(sess *exam.Session) (*response_models.TestSessionResponse, error) {
	snap, err := sess.Snapshot()
	if err != nil {
		return nil, err
	}
	return toSessionResponse(snap), nil
}

func toSessionResponse(snap exam.Snapshot) *response_models.TestSessionResponse {
	resp := &response_models.TestSessionResponse{
		SessionID:        snap.ID,
		Subtopic:         snap.Subtopic,
		Status:           string(snap.Status),
		RemainingSeconds: snap.RemainingSeconds,
		RemainingDisplay: utils.FormatCountdown(snap.RemainingSeconds),
		CurrentIndex:     snap.CurrentIndex,
		TotalQuestions:   len(snap.Items),
		AnsweredCount:    len(snap.Answers),
		Questions:        make([]response_models.QuestionView, 0, len(snap.Items)),
		Answers:          make(map[string]string, len(snap.Answers)),
		FinishReason:     string(snap.FinishReason),
		FinishedAt:       utils.FormatRFC3339(snap.FinishedAt),
		LoadError:        snap.LoadError,
	}
	for _, it := range snap.Items {
		qv := response_models.QuestionView{
			ID:       string(it.Question.ID),
			Question: it.Question.Body,
			Image:    it.Question.Image,
			Options:  make([]response_models.OptionView, 0, len(it.Options)),
		}
		for _, o := range it.Options {
			qv.Options = append(qv.Options, response_models.OptionView{
				ID:    string(o.ID),
				Text:  o.Text,
				Type:  string(o.Type),
				Image: o.Image,
			})
		}
		resp.Questions = append(resp.Questions, qv)
	}
	for q, o := range snap.Answers {
		resp.Answers[string(q)] = string(o)
	}
	if snap.Score != nil {
		sc := toScoreResponse(*snap.Score)
		resp.Score = &sc
	}
	return resp
}

func toScoreResponse(s exam.Score) response_models.ScoreResponse {
	return response_models.ScoreResponse{
		Correct:    s.Correct,
		Total:      s.Total,
		Answered:   s.Answered,
		Unanswered: s.Unanswered(),
		Percentage: s.Percentage,
	}
}
