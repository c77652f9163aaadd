package training

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/karowl/simportal/internal/database"
)

var (
	// ErrNoActiveRun is returned when a mutation targets an identity with
	// no active training run; the caller should start or resume first
	ErrNoActiveRun = errors.New("no active training run")
)

// CourseInfo labels the course a run belongs to
type CourseInfo struct {
	CourseID   string `json:"courseId"`
	CourseName string `json:"courseName"`
}

// AdvanceInput is one phase-completion event. Calling AdvancePhase twice
// for the same event double-counts; idempotency is the caller's problem.
type AdvanceInput struct {
	TimeSpentMs int64
	NextPhase   string
	NewProgress *int
}

// CompleteInput finalizes a run
type CompleteInput struct {
	TotalTimeMs     int64
	PhasesCompleted *int
	Quiz            *QuizSummary
}

// Service owns per-learner training runs and the one-active-run invariant.
// A run is keyed by learner email, not by session ID: every relaunch mints
// a new session but resumes the same run.
type Service interface {
	StartOrResume(learner LearnerIdentity, sessionID uuid.UUID, course CourseInfo) (run *Run, resumed bool, err error)
	AdvancePhase(email string, input AdvanceInput) (*Run, error)
	RecordQuiz(email string, responses map[string]QuizResponse, totalQuestions int) (*Run, QuizSummary, error)
	Complete(email string, input CompleteInput) (*Run, error)
	ActiveRun(email string) (*Run, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates the training progress engine
func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

// StartOrResume finds the active run for the learner's email and re-points
// it at the current session, or creates a new run. A concurrent create for
// the same email loses the insert race and re-reads the winner's row, so
// two tabs or a rapid relaunch still converge on one record.
func (s *service) StartOrResume(learner LearnerIdentity, sessionID uuid.UUID, course CourseInfo) (*Run, bool, error) {
	existing, err := s.repo.FindActiveByEmail(learner.Email)
	if err == nil {
		if err := s.repo.RepointSession(existing.ID, sessionID); err != nil {
			slog.Warn("Failed to re-point training run to new session",
				"error", err, "run_id", existing.ID.String(), "email", learner.Email)
		} else {
			existing.SessionID = sessionID
		}
		return existing, true, nil
	}
	if !database.IsNotFound(err) {
		return nil, false, err
	}

	// Collapse any stale active rows for this email before inserting,
	// so at most one active row survives even over historical data.
	if abandoned, err := s.repo.AbandonActiveByEmail(learner.Email); err != nil {
		slog.Warn("Failed to abandon stale training runs", "error", err, "email", learner.Email)
	} else if abandoned > 0 {
		slog.Warn("Abandoned stale training runs before new start", "count", abandoned, "email", learner.Email)
	}

	run := &Run{
		SessionID:  sessionID,
		Learner:    learner,
		CourseID:   course.CourseID,
		CourseName: course.CourseName,
		Status:     StatusActive,
		StartedAt:  s.now().UTC(),
	}
	run.ID = uuid.New()

	if err := s.repo.Insert(run); err != nil {
		if database.IsConflict(err) {
			winner, rerr := s.repo.FindActiveByEmail(learner.Email)
			if rerr != nil {
				return nil, false, rerr
			}
			if err := s.repo.RepointSession(winner.ID, sessionID); err == nil {
				winner.SessionID = sessionID
			}
			return winner, true, nil
		}
		return nil, false, err
	}

	return run, false, nil
}

// AdvancePhase applies one phase-completion event to the active run
func (s *service) AdvancePhase(email string, input AdvanceInput) (*Run, error) {
	run, err := s.activeRun(email)
	if err != nil {
		return nil, err
	}

	run.PhasesCompleted++

	if input.TimeSpentMs > 0 {
		run.TotalTimeSeconds += input.TimeSpentMs / 1000
	}

	if input.NextPhase != "" {
		run.CurrentPhase = input.NextPhase
	}

	if input.NewProgress != nil {
		progress := *input.NewProgress
		if progress > 100 {
			progress = 100
		}
		if progress < 0 {
			progress = 0
		}
		run.OverallProgress = progress
	}

	patch := PhasePatch{
		CurrentPhase:     run.CurrentPhase,
		OverallProgress:  run.OverallProgress,
		PhasesCompleted:  run.PhasesCompleted,
		TotalTimeSeconds: run.TotalTimeSeconds,
	}
	if err := s.repo.UpdatePhase(run.ID, patch); err != nil {
		return nil, err
	}

	return run, nil
}

// RecordQuiz scores a quiz completion and accrues the score onto the run.
// Score is mutated here and nowhere else; AdvancePhase never touches it.
func (s *service) RecordQuiz(email string, responses map[string]QuizResponse, totalQuestions int) (*Run, QuizSummary, error) {
	summary := ScoreQuiz(responses, totalQuestions)

	run, err := s.activeRun(email)
	if err != nil {
		return nil, summary, err
	}

	if err := s.repo.AddScore(run.ID, summary.TotalScore); err != nil {
		return nil, summary, err
	}
	run.TotalScore += summary.TotalScore

	return run, summary, nil
}

// Complete transitions the run to completed and writes the final results.
// Completed runs are invisible to every other engine operation.
func (s *service) Complete(email string, input CompleteInput) (*Run, error) {
	run, err := s.activeRun(email)
	if err != nil {
		return nil, err
	}

	phasesCompleted := run.PhasesCompleted
	if input.PhasesCompleted != nil {
		phasesCompleted = *input.PhasesCompleted
	}

	totalTime := run.TotalTimeSeconds
	if input.TotalTimeMs > 0 && input.TotalTimeMs/1000 > totalTime {
		totalTime = input.TotalTimeMs / 1000
	}

	percentage, grade := LetterGrade(run.TotalScore, phasesCompleted)

	now := s.now().UTC()
	results := &FinalResults{
		TotalScore:       run.TotalScore,
		MaxScore:         phasesCompleted * 100,
		Percentage:       percentage,
		Grade:            grade,
		PhasesCompleted:  phasesCompleted,
		TotalTimeSeconds: totalTime,
		Quiz:             input.Quiz,
	}

	patch := CompletionPatch{
		PhasesCompleted:  phasesCompleted,
		TotalTimeSeconds: totalTime,
		CompletedAt:      now,
		FinalResults:     results,
	}
	if err := s.repo.Complete(run.ID, patch); err != nil {
		return nil, err
	}

	run.Status = StatusCompleted
	run.OverallProgress = 100
	run.PhasesCompleted = phasesCompleted
	run.TotalTimeSeconds = totalTime
	run.CompletedAt = &now
	run.FinalResults = results

	return run, nil
}

// ActiveRun returns the active run for an identity
func (s *service) ActiveRun(email string) (*Run, error) {
	return s.activeRun(email)
}

func (s *service) activeRun(email string) (*Run, error) {
	run, err := s.repo.FindActiveByEmail(email)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNoActiveRun
		}
		return nil, err
	}
	return run, nil
}
