package exam

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	items []QuestionItem
	err   error
	calls int
}

func (s *stubSource) QuestionsBySubtopic(_ context.Context, _ string) ([]QuestionItem, error) {
	s.calls++
	return s.items, s.err
}

type recordingSink struct {
	mu      sync.Mutex
	results []Result
	err     error
}

func (r *recordingSink) SaveResult(_ context.Context, res Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	return r.err
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func threeQuestions() []QuestionItem {
	return []QuestionItem{
		item("q1", "Paris", "Paris", "Rome"),
		item("q2", "4", "3", "4"),
		item("q3", "Go", "Go", "Rust"),
	}
}

func startSession(t *testing.T, items []QuestionItem, opts Options) *Session {
	t.Helper()
	opts.DisableTimer = true
	s := NewSession("s1", "biology", opts)
	t.Cleanup(s.Close)
	require.NoError(t, s.Load(context.Background(), &stubSource{items: items}))
	return s
}

func TestSession_SubmitScoresAnswers(t *testing.T) {
	sink := &recordingSink{}
	s := startSession(t, threeQuestions(), Options{Sink: sink, Credentials: "Bearer t"})

	require.NoError(t, s.SelectAnswer("q1", "q1-a"))
	require.NoError(t, s.SelectAnswer("q2", "q2-a"))

	score, err := s.Submit()
	require.NoError(t, err)
	assert.Equal(t, Score{Correct: 1, Total: 3, Answered: 2, Percentage: 33}, score)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, snap.Status)
	assert.Equal(t, FinishSubmitted, snap.FinishReason)
	require.NotNil(t, snap.Score)
	assert.Equal(t, score, *snap.Score)

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "biology", sink.results[0].Subtopic)
	assert.Equal(t, "Bearer t", sink.results[0].Credentials)
	assert.Equal(t, score, sink.results[0].Score)
}

func TestSession_LastSelectionWins(t *testing.T) {
	s := startSession(t, threeQuestions(), Options{})

	require.NoError(t, s.SelectAnswer("q1", "q1-a"))
	require.NoError(t, s.SelectAnswer("q1", "q1-b"))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, AnswerMap{"q1": "q1-b"}, snap.Answers)

	score, err := s.Submit()
	require.NoError(t, err)
	assert.Equal(t, 0, score.Correct)
	assert.Equal(t, 1, score.Answered)
}

func TestSession_RejectsUnknownIDs(t *testing.T) {
	s := startSession(t, threeQuestions(), Options{})

	assert.ErrorIs(t, s.SelectAnswer("nope", "q1-a"), ErrUnknownQuestion)
	assert.ErrorIs(t, s.SelectAnswer("q1", "q2-a"), ErrUnknownOption)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, snap.Answers)
}

func TestSession_TimerNeverIncreasesOrGoesNegative(t *testing.T) {
	s := startSession(t, threeQuestions(), Options{Budget: 5 * time.Second})

	prev := 5
	for i := 0; i < 8; i++ {
		_ = s.Tick()
		snap, err := s.Snapshot()
		require.NoError(t, err)
		assert.LessOrEqual(t, snap.RemainingSeconds, prev)
		assert.GreaterOrEqual(t, snap.RemainingSeconds, 0)
		prev = snap.RemainingSeconds
	}
}

func TestSession_ExpiryFinalizesWithoutAnswers(t *testing.T) {
	sink := &recordingSink{}
	s := startSession(t, threeQuestions(), Options{Budget: 3 * time.Second, Sink: sink})

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Tick())
	}

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, snap.Status)
	assert.Equal(t, FinishTimeExpired, snap.FinishReason)
	assert.Equal(t, 0, snap.RemainingSeconds)
	assert.Equal(t, &Score{Correct: 0, Total: 3, Answered: 0, Percentage: 0}, snap.Score)

	assert.ErrorIs(t, s.Tick(), ErrSessionFinished)
	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestSession_FrozenAfterFinish(t *testing.T) {
	s := startSession(t, threeQuestions(), Options{})
	require.NoError(t, s.SelectAnswer("q1", "q1-a"))
	_, err := s.Submit()
	require.NoError(t, err)

	before, err := s.Snapshot()
	require.NoError(t, err)

	assert.ErrorIs(t, s.SelectAnswer("q2", "q2-b"), ErrSessionFinished)
	_, err = s.Submit()
	assert.ErrorIs(t, err, ErrSessionFinished)
	assert.ErrorIs(t, s.Tick(), ErrSessionFinished)

	after, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, before.Answers, after.Answers)
	assert.Equal(t, before.RemainingSeconds, after.RemainingSeconds)
	assert.Equal(t, before.Score, after.Score)
}

func TestSession_SubmitAndExpiryRaceFinalizesOnce(t *testing.T) {
	for round := 0; round < 20; round++ {
		sink := &recordingSink{}
		s := startSession(t, threeQuestions(), Options{Budget: time.Second, Sink: sink})
		require.NoError(t, s.SelectAnswer("q1", "q1-a"))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); _, _ = s.Submit() }()
		go func() { defer wg.Done(); _ = s.Tick() }()
		wg.Wait()

		snap, err := s.Snapshot()
		require.NoError(t, err)
		assert.Equal(t, StatusFinished, snap.Status)
		assert.Equal(t, 1, snap.Score.Correct)

		time.Sleep(10 * time.Millisecond)
		assert.Equal(t, 1, sink.count())
	}
}

func TestSession_AutonomousTimerExpires(t *testing.T) {
	sink := &recordingSink{}
	s := NewSession("s2", "physics", Options{
		Budget:       2 * time.Second,
		TickInterval: 5 * time.Millisecond,
		Sink:         sink,
	})
	defer s.Close()
	require.NoError(t, s.Load(context.Background(), &stubSource{items: threeQuestions()}))

	require.Eventually(t, func() bool {
		snap, err := s.Snapshot()
		return err == nil && snap.Status == StatusFinished
	}, time.Second, 5*time.Millisecond)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, FinishTimeExpired, snap.FinishReason)
	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, sink.count())
}

func TestSession_EmptySubtopic(t *testing.T) {
	s := NewSession("s3", "nothing", Options{DisableTimer: true})
	defer s.Close()

	require.NoError(t, s.Load(context.Background(), &stubSource{}))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, snap.Status)
	assert.Empty(t, snap.LoadError)

	_, err = s.Submit()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSession_FetchFailureIsRetryable(t *testing.T) {
	s := NewSession("s4", "chemistry", Options{DisableTimer: true})
	defer s.Close()

	src := &stubSource{err: errors.New("connection refused")}
	err := s.Load(context.Background(), src)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "chemistry", fe.Subtopic)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, StatusError, snap.Status)
	assert.Empty(t, snap.Items)
	assert.Contains(t, snap.LoadError, "connection refused")

	src.err = nil
	src.items = threeQuestions()
	require.NoError(t, s.Load(context.Background(), src))

	snap, err = s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, snap.Status)
	assert.Len(t, snap.Items, 3)
	assert.Equal(t, 1800, snap.RemainingSeconds)
	assert.Equal(t, 2, src.calls)

	assert.ErrorIs(t, s.Load(context.Background(), src), ErrInvalidTransition)
}

func TestSession_NavigateClamps(t *testing.T) {
	s := startSession(t, threeQuestions(), Options{})

	idx, err := s.Navigate(Prev)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	for i := 0; i < 5; i++ {
		idx, err = s.Navigate(Next)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, idx)

	idx, err = s.Jump(-4)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	idx, err = s.Jump(1)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, snap.Answers)
	assert.Equal(t, 1800, snap.RemainingSeconds)
	cur, ok := snap.Current()
	require.True(t, ok)
	assert.Equal(t, ID("q2"), cur.Question.ID)
}

func TestSession_Review(t *testing.T) {
	s := startSession(t, threeQuestions(), Options{})

	_, err := s.Review()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, s.SelectAnswer("q1", "q1-a"))
	require.NoError(t, s.SelectAnswer("q2", "q2-a"))
	_, err = s.Submit()
	require.NoError(t, err)

	rows, err := s.Review()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].Correct)
	assert.True(t, rows[1].Answered)
	assert.False(t, rows[1].Correct)
	assert.Equal(t, "3", rows[1].SelectedText)
	assert.False(t, rows[2].Answered)
	assert.Equal(t, "Go", rows[2].CorrectAnswer)
}

func TestSession_PersistFailureIsSilent(t *testing.T) {
	sink := &recordingSink{err: errors.New("401 unauthorized")}
	s := startSession(t, threeQuestions(), Options{Sink: sink})
	require.NoError(t, s.SelectAnswer("q3", "q3-a"))

	score, err := s.Submit()
	require.NoError(t, err)
	assert.Equal(t, 1, score.Correct)

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, snap.Status)
	assert.Equal(t, &score, snap.Score)
}

type blockingSource struct {
	release chan struct{}
	items   []QuestionItem
}

func (b *blockingSource) QuestionsBySubtopic(_ context.Context, _ string) ([]QuestionItem, error) {
	<-b.release
	return b.items, nil
}

func TestSession_LateLoadAfterCloseIsDropped(t *testing.T) {
	s := NewSession("s5", "history", Options{DisableTimer: true})
	src := &blockingSource{release: make(chan struct{}), items: threeQuestions()}

	errc := make(chan error, 1)
	go func() { errc <- s.Load(context.Background(), src) }()

	time.Sleep(10 * time.Millisecond)
	s.Close()
	close(src.release)

	assert.ErrorIs(t, <-errc, ErrSessionClosed)
	_, err := s.Snapshot()
	assert.ErrorIs(t, err, ErrSessionClosed)
}
