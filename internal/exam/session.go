package exam

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// QuestionSource fetches the ordered question set for a subtopic.
type QuestionSource interface {
	QuestionsBySubtopic(ctx context.Context, subtopic string) ([]QuestionItem, error)
}

// ResultSink receives the result of a finished session. Errors are logged
// and otherwise ignored.
type ResultSink interface {
	SaveResult(ctx context.Context, r Result) error
}

type Direction int

const (
	Prev Direction = -1
	Next Direction = 1
)

type Options struct {
	Budget         time.Duration
	TickInterval   time.Duration
	DisableTimer   bool // ticks are driven by calling Tick
	Sink           ResultSink
	PersistTimeout time.Duration
	Credentials    string
	UserID         string
	Logger         *zap.Logger
}

func (o *Options) setDefaults() {
	if o.Budget <= 0 {
		o.Budget = DefaultBudget
	}
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = 10 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

type state struct {
	status     Status
	items      []QuestionItem
	index      map[ID]int
	answers    AnswerMap
	remaining  int
	current    int
	score      *Score
	reason     FinishReason
	loadErr    string
	finishedAt time.Time
	stopTimer  chan struct{}
}

func (st *state) haltTimer() {
	if st.stopTimer != nil {
		close(st.stopTimer)
		st.stopTimer = nil
	}
}

// Session drives one timed multiple-choice test. Every mutation, timer ticks
// included, runs on the session's own goroutine, so finalization always sees
// the latest answers.
type Session struct {
	id       string
	subtopic string
	opts     Options
	log      *zap.Logger

	st        state
	cmds      chan func(*state)
	quit      chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

func NewSession(id, subtopic string, opts Options) *Session {
	opts.setDefaults()
	s := &Session{
		id:       id,
		subtopic: subtopic,
		opts:     opts,
		log:      opts.Logger.With(zap.String("session_id", id), zap.String("subtopic", subtopic)),
		st:       state{status: StatusLoading, answers: AnswerMap{}},
		cmds:     make(chan func(*state)),
		quit:     make(chan struct{}),
		closed:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Session) ID() string       { return s.id }
func (s *Session) Subtopic() string { return s.subtopic }

func (s *Session) run() {
	defer close(s.closed)
	for {
		select {
		case cmd := <-s.cmds:
			cmd(&s.st)
		case <-s.quit:
			s.st.haltTimer()
			return
		}
	}
}

func (s *Session) do(fn func(*state)) error {
	done := make(chan struct{})
	cmd := func(st *state) {
		defer close(done)
		fn(st)
	}
	select {
	case s.cmds <- cmd:
	case <-s.closed:
		return ErrSessionClosed
	}
	<-done
	return nil
}

// Close discards the session. The timer stops and results of a fetch still
// in flight are dropped.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.closed
}

// Load fetches the question set. It is valid while loading and, as a manual
// retry, after a failed fetch. An empty set is not an error: the session
// moves to StatusEmpty.
func (s *Session) Load(ctx context.Context, src QuestionSource) error {
	var err error
	if cerr := s.do(func(st *state) {
		switch st.status {
		case StatusLoading:
		case StatusError:
			st.status = StatusLoading
			st.loadErr = ""
		default:
			err = fmt.Errorf("load while %s: %w", st.status, ErrInvalidTransition)
		}
	}); cerr != nil {
		return cerr
	}
	if err != nil {
		return err
	}

	items, ferr := src.QuestionsBySubtopic(ctx, s.subtopic)
	if ferr != nil {
		ferr = &FetchError{Subtopic: s.subtopic, Err: ferr}
	}
	if cerr := s.do(func(st *state) { s.applyLoad(st, items, ferr) }); cerr != nil {
		return cerr
	}
	return ferr
}

func (s *Session) applyLoad(st *state, items []QuestionItem, err error) {
	if st.status != StatusLoading {
		return
	}
	switch {
	case err != nil:
		st.status = StatusError
		st.loadErr = err.Error()
		s.log.Warn("question fetch failed", zap.Error(err))
	case len(items) == 0:
		st.status = StatusEmpty
		s.log.Info("subtopic has no questions")
	default:
		st.items = make([]QuestionItem, len(items))
		copy(st.items, items)
		st.index = make(map[ID]int, len(items))
		for i, it := range st.items {
			st.index[it.Question.ID] = i
		}
		st.remaining = int(s.opts.Budget / time.Second)
		st.current = 0
		st.status = StatusInProgress
		s.startTimer(st)
		s.log.Info("test started", zap.Int("questions", len(items)), zap.Int("budget_seconds", st.remaining))
	}
}

func (s *Session) startTimer(st *state) {
	if s.opts.DisableTimer {
		return
	}
	stop := make(chan struct{})
	st.stopTimer = stop
	go s.runTimer(stop)
}

func (s *Session) runTimer(stop <-chan struct{}) {
	t := time.NewTicker(s.opts.TickInterval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if err := s.do(s.tick); err != nil {
				return
			}
		}
	}
}

func (s *Session) tick(st *state) {
	if st.status != StatusInProgress {
		return
	}
	st.remaining--
	if st.remaining <= 0 {
		st.remaining = 0
		s.finalize(st, FinishTimeExpired)
	}
}

// Tick advances the countdown by one second.
func (s *Session) Tick() error {
	var err error
	if cerr := s.do(func(st *state) {
		if err = requireInProgress(st); err == nil {
			s.tick(st)
		}
	}); cerr != nil {
		return cerr
	}
	return err
}

// SelectAnswer records optionID as the answer to questionID, replacing any
// earlier choice.
func (s *Session) SelectAnswer(questionID, optionID ID) error {
	var err error
	if cerr := s.do(func(st *state) {
		if err = requireInProgress(st); err != nil {
			return
		}
		i, ok := st.index[questionID]
		if !ok {
			err = fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
			return
		}
		if _, ok := st.items[i].option(optionID); !ok {
			err = fmt.Errorf("%w: option %s, question %s", ErrUnknownOption, optionID, questionID)
			return
		}
		st.answers[questionID] = optionID
	}); cerr != nil {
		return cerr
	}
	return err
}

// Navigate moves the display index one step, clamped to the question range.
func (s *Session) Navigate(dir Direction) (int, error) {
	var (
		idx int
		err error
	)
	if cerr := s.do(func(st *state) {
		if err = requireViewable(st); err != nil {
			return
		}
		step := 1
		if dir < 0 {
			step = -1
		}
		st.current = clamp(st.current+step, 0, len(st.items)-1)
		idx = st.current
	}); cerr != nil {
		return 0, cerr
	}
	return idx, err
}

// Jump sets the display index, clamped to the question range.
func (s *Session) Jump(index int) (int, error) {
	var (
		idx int
		err error
	)
	if cerr := s.do(func(st *state) {
		if err = requireViewable(st); err != nil {
			return
		}
		st.current = clamp(index, 0, len(st.items)-1)
		idx = st.current
	}); cerr != nil {
		return 0, cerr
	}
	return idx, err
}

// Submit finishes the test early and returns its score.
func (s *Session) Submit() (Score, error) {
	var (
		score Score
		err   error
	)
	if cerr := s.do(func(st *state) {
		if err = requireInProgress(st); err != nil {
			return
		}
		s.finalize(st, FinishSubmitted)
		score = *st.score
	}); cerr != nil {
		return Score{}, cerr
	}
	return score, err
}

// finalize is a no-op once the session is finished.
func (s *Session) finalize(st *state, reason FinishReason) {
	if st.status == StatusFinished {
		return
	}
	score := ComputeScore(st.items, st.answers)
	st.score = &score
	st.status = StatusFinished
	st.reason = reason
	st.finishedAt = time.Now()
	st.haltTimer()

	s.log.Info("test finished",
		zap.String("reason", string(reason)),
		zap.Int("correct", score.Correct),
		zap.Int("answered", score.Answered),
		zap.Int("total", score.Total),
		zap.Int("percentage", score.Percentage),
	)

	if s.opts.Sink == nil {
		return
	}
	go s.persist(Result{
		SessionID:    s.id,
		Subtopic:     s.subtopic,
		Credentials:  s.opts.Credentials,
		UserID:       s.opts.UserID,
		Score:        score,
		Answers:      st.answers.clone(),
		FinishReason: reason,
		FinishedAt:   st.finishedAt,
	})
}

func (s *Session) persist(r Result) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.PersistTimeout)
	defer cancel()
	if err := s.opts.Sink.SaveResult(ctx, r); err != nil {
		s.log.Debug("result not saved", zap.Error(err))
	}
}

func (s *Session) Snapshot() (Snapshot, error) {
	var snap Snapshot
	if err := s.do(func(st *state) {
		snap = Snapshot{
			ID:               s.id,
			Subtopic:         s.subtopic,
			Status:           st.status,
			Items:            st.items,
			Answers:          st.answers.clone(),
			RemainingSeconds: st.remaining,
			CurrentIndex:     st.current,
			FinishReason:     st.reason,
			LoadError:        st.loadErr,
			FinishedAt:       st.finishedAt,
		}
		if st.score != nil {
			sc := *st.score
			snap.Score = &sc
		}
	}); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Review lists every question with the selection made and its outcome.
// Only available once the session is finished.
func (s *Session) Review() ([]ReviewItem, error) {
	var (
		rows []ReviewItem
		err  error
	)
	if cerr := s.do(func(st *state) {
		if st.status != StatusFinished {
			err = fmt.Errorf("review while %s: %w", st.status, ErrInvalidTransition)
			return
		}
		rows = review(st.items, st.answers)
	}); cerr != nil {
		return nil, cerr
	}
	return rows, err
}

func requireInProgress(st *state) error {
	switch st.status {
	case StatusInProgress:
		return nil
	case StatusFinished:
		return ErrSessionFinished
	default:
		return fmt.Errorf("session is %s: %w", st.status, ErrInvalidTransition)
	}
}

func requireViewable(st *state) error {
	if st.status == StatusInProgress || st.status == StatusFinished {
		return nil
	}
	return fmt.Errorf("session is %s: %w", st.status, ErrInvalidTransition)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
