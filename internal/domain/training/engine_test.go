package training

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeRepo is an in-memory Repository that emulates the partial unique
// index on (learner_email) WHERE status = 'active'.
type fakeRepo struct {
	runs map[uuid.UUID]*Run

	// insertHook runs before Insert applies; tests use it to emulate a
	// concurrent request winning the insert race
	insertHook func()
	// findMissOnce makes the next FindActiveByEmail miss even when rows
	// exist, emulating a stale read over inconsistent data
	findMissOnce bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{runs: make(map[uuid.UUID]*Run)}
}

func (f *fakeRepo) seedActive(email string) *Run {
	run := &Run{
		Learner:   LearnerIdentity{Email: email},
		Status:    StatusActive,
		StartedAt: time.Now().UTC(),
	}
	run.ID = uuid.New()
	f.runs[run.ID] = run
	return run
}

func (f *fakeRepo) Insert(run *Run) error {
	if f.insertHook != nil {
		f.insertHook()
		f.insertHook = nil
	}
	for _, existing := range f.runs {
		if existing.Learner.Email == run.Learner.Email && existing.Status == StatusActive {
			return gorm.ErrDuplicatedKey
		}
	}
	clone := *run
	f.runs[run.ID] = &clone
	return nil
}

func (f *fakeRepo) FindActiveByEmail(email string) (*Run, error) {
	if f.findMissOnce {
		f.findMissOnce = false
		return nil, gorm.ErrRecordNotFound
	}
	for _, run := range f.runs {
		if run.Learner.Email == email && run.Status == StatusActive {
			clone := *run
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) RepointSession(id uuid.UUID, sessionID uuid.UUID) error {
	if run, ok := f.runs[id]; ok && run.Status == StatusActive {
		run.SessionID = sessionID
	}
	return nil
}

func (f *fakeRepo) AbandonActiveByEmail(email string) (int64, error) {
	var count int64
	for _, run := range f.runs {
		if run.Learner.Email == email && run.Status == StatusActive {
			run.Status = StatusAbandoned
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) UpdatePhase(id uuid.UUID, patch PhasePatch) error {
	run, ok := f.runs[id]
	if !ok || run.Status != StatusActive {
		return nil
	}
	run.CurrentPhase = patch.CurrentPhase
	run.OverallProgress = patch.OverallProgress
	run.PhasesCompleted = patch.PhasesCompleted
	run.TotalTimeSeconds = patch.TotalTimeSeconds
	return nil
}

func (f *fakeRepo) AddScore(id uuid.UUID, delta int) error {
	if run, ok := f.runs[id]; ok && run.Status == StatusActive {
		run.TotalScore += delta
	}
	return nil
}

func (f *fakeRepo) Complete(id uuid.UUID, patch CompletionPatch) error {
	run, ok := f.runs[id]
	if !ok || run.Status != StatusActive {
		return nil
	}
	run.Status = StatusCompleted
	run.OverallProgress = 100
	run.PhasesCompleted = patch.PhasesCompleted
	run.TotalTimeSeconds = patch.TotalTimeSeconds
	completedAt := patch.CompletedAt
	run.CompletedAt = &completedAt
	run.FinalResults = patch.FinalResults
	return nil
}

// activeCount is a test-side helper, not part of the Repository contract
func (f *fakeRepo) activeCount(email string) int {
	count := 0
	for _, run := range f.runs {
		if run.Learner.Email == email && run.Status == StatusActive {
			count++
		}
	}
	return count
}

func testLearner() LearnerIdentity {
	return LearnerIdentity{
		UserID:      "user-1",
		Email:       "learner@example.edu",
		DisplayName: "Test Learner",
	}
}

func TestStartOrResume_CreatesNewRun(t *testing.T) {
	repo := newFakeRepo()
	engine := NewService(repo)

	sessionID := uuid.New()
	run, resumed, err := engine.StartOrResume(testLearner(), sessionID, CourseInfo{CourseID: "c-1", CourseName: "Crane Basics"})
	require.NoError(t, err)

	assert.False(t, resumed)
	assert.Equal(t, sessionID, run.SessionID)
	assert.Equal(t, StatusActive, run.Status)
	assert.Equal(t, "c-1", run.CourseID)

	assert.Equal(t, 1, repo.activeCount("learner@example.edu"))
}

func TestStartOrResume_IdempotentResume(t *testing.T) {
	repo := newFakeRepo()
	engine := NewService(repo)

	first, resumed, err := engine.StartOrResume(testLearner(), uuid.New(), CourseInfo{})
	require.NoError(t, err)
	require.False(t, resumed)

	// A relaunch mints a new session ID but must resume the same run
	newSession := uuid.New()
	second, resumed, err := engine.StartOrResume(testLearner(), newSession, CourseInfo{})
	require.NoError(t, err)

	assert.True(t, resumed)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, newSession, second.SessionID)

	assert.Equal(t, 1, repo.activeCount("learner@example.edu"))
}

func TestStartOrResume_InsertConflictRereads(t *testing.T) {
	repo := newFakeRepo()
	engine := NewService(repo)

	// Emulate a concurrent request creating the run between our lookup
	// miss and our insert
	var winner *Run
	repo.insertHook = func() {
		winner = repo.seedActive("learner@example.edu")
	}

	sessionID := uuid.New()
	run, resumed, err := engine.StartOrResume(testLearner(), sessionID, CourseInfo{})
	require.NoError(t, err)

	assert.True(t, resumed)
	assert.Equal(t, winner.ID, run.ID)
	assert.Equal(t, sessionID, run.SessionID)

	assert.Equal(t, 1, repo.activeCount("learner@example.edu"))
}

func TestStartOrResume_ReconcilesStaleActives(t *testing.T) {
	repo := newFakeRepo()
	engine := NewService(repo)

	// Two stale active rows for the same email, plus a lookup that misses
	// them: the engine must abandon both before inserting
	repo.seedActive("learner@example.edu")
	repo.seedActive("learner@example.edu")
	repo.findMissOnce = true

	run, resumed, err := engine.StartOrResume(testLearner(), uuid.New(), CourseInfo{})
	require.NoError(t, err)
	assert.False(t, resumed)
	assert.Equal(t, StatusActive, run.Status)

	assert.Equal(t, 1, repo.activeCount("learner@example.edu"), "at most one active run per identity")
}

func TestAdvancePhase(t *testing.T) {
	repo := newFakeRepo()
	engine := NewService(repo)

	_, _, err := engine.StartOrResume(testLearner(), uuid.New(), CourseInfo{})
	require.NoError(t, err)

	progress := 25
	run, err := engine.AdvancePhase("learner@example.edu", AdvanceInput{
		TimeSpentMs: 90500,
		NextPhase:   "Rigging",
		NewProgress: &progress,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, run.PhasesCompleted)
	assert.Equal(t, int64(90), run.TotalTimeSeconds)
	assert.Equal(t, "Rigging", run.CurrentPhase)
	assert.Equal(t, 25, run.OverallProgress)

	// Omitted phase keeps the current one; progress is clamped to 100
	over := 250
	run, err = engine.AdvancePhase("learner@example.edu", AdvanceInput{NewProgress: &over})
	require.NoError(t, err)
	assert.Equal(t, 2, run.PhasesCompleted)
	assert.Equal(t, "Rigging", run.CurrentPhase)
	assert.Equal(t, 100, run.OverallProgress)
}

func TestAdvancePhase_NegativeTimeIgnored(t *testing.T) {
	repo := newFakeRepo()
	engine := NewService(repo)

	_, _, err := engine.StartOrResume(testLearner(), uuid.New(), CourseInfo{})
	require.NoError(t, err)

	run, err := engine.AdvancePhase("learner@example.edu", AdvanceInput{TimeSpentMs: -5000})
	require.NoError(t, err)
	assert.Equal(t, int64(0), run.TotalTimeSeconds)
}

func TestAdvancePhase_NoActiveRun(t *testing.T) {
	engine := NewService(newFakeRepo())

	_, err := engine.AdvancePhase("nobody@example.edu", AdvanceInput{})
	assert.ErrorIs(t, err, ErrNoActiveRun)
}

func TestRecordQuiz_AccruesScore(t *testing.T) {
	repo := newFakeRepo()
	engine := NewService(repo)

	_, _, err := engine.StartOrResume(testLearner(), uuid.New(), CourseInfo{})
	require.NoError(t, err)

	responses := map[string]QuizResponse{
		"q1": {Correct: true, Attempts: 1, TimeMs: 3000},
		"q2": {Correct: true, Attempts: 3, TimeMs: 6000},
		"q3": {Correct: false, Attempts: 1, TimeMs: 1000},
	}

	run, summary, err := engine.RecordQuiz("learner@example.edu", responses, 0)
	require.NoError(t, err)

	assert.Equal(t, 180, summary.TotalScore)
	assert.Equal(t, 180, run.TotalScore)

	// A second quiz accrues on top; phase advancement never touches score
	run, _, err = engine.RecordQuiz("learner@example.edu", map[string]QuizResponse{
		"q4": {Correct: true, Attempts: 1, TimeMs: 2000},
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, 280, run.TotalScore)
}

func TestComplete(t *testing.T) {
	repo := newFakeRepo()
	engine := NewService(repo)

	_, _, err := engine.StartOrResume(testLearner(), uuid.New(), CourseInfo{})
	require.NoError(t, err)

	_, _, err = engine.RecordQuiz("learner@example.edu", map[string]QuizResponse{
		"q1": {Correct: true, Attempts: 1},
		"q2": {Correct: true, Attempts: 2},
		"q3": {Correct: true, Attempts: 6},
	}, 0)
	require.NoError(t, err)

	phases := 3
	run, err := engine.Complete("learner@example.edu", CompleteInput{
		TotalTimeMs:     600000,
		PhasesCompleted: &phases,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, 100, run.OverallProgress)
	assert.NotNil(t, run.CompletedAt)
	require.NotNil(t, run.FinalResults)
	// 100 + 90 + 50 = 240 over 3 phases -> 80% -> B
	assert.Equal(t, 240, run.FinalResults.TotalScore)
	assert.Equal(t, 80, run.FinalResults.Percentage)
	assert.Equal(t, "B", run.FinalResults.Grade)
	assert.Equal(t, int64(600), run.TotalTimeSeconds)
}

func TestComplete_ZeroPhasesGradeNA(t *testing.T) {
	repo := newFakeRepo()
	engine := NewService(repo)

	_, _, err := engine.StartOrResume(testLearner(), uuid.New(), CourseInfo{})
	require.NoError(t, err)

	phases := 0
	run, err := engine.Complete("learner@example.edu", CompleteInput{PhasesCompleted: &phases})
	require.NoError(t, err)
	require.NotNil(t, run.FinalResults)
	assert.Equal(t, "N/A", run.FinalResults.Grade)
}

func TestComplete_IsTerminal(t *testing.T) {
	repo := newFakeRepo()
	engine := NewService(repo)

	_, _, err := engine.StartOrResume(testLearner(), uuid.New(), CourseInfo{})
	require.NoError(t, err)

	_, err = engine.Complete("learner@example.edu", CompleteInput{})
	require.NoError(t, err)

	// Completed runs are invisible to every other operation
	_, err = engine.AdvancePhase("learner@example.edu", AdvanceInput{})
	assert.ErrorIs(t, err, ErrNoActiveRun)

	_, _, err = engine.RecordQuiz("learner@example.edu", nil, 0)
	assert.ErrorIs(t, err, ErrNoActiveRun)

	_, err = engine.ActiveRun("learner@example.edu")
	assert.ErrorIs(t, err, ErrNoActiveRun)
}
