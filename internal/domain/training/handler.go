package training

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/karowl/simportal/internal/domain/auth"
	"github.com/karowl/simportal/internal/domain/policy"
	"github.com/karowl/simportal/internal/domain/session"
	"github.com/karowl/simportal/internal/utils"
)

// Handler exposes the training endpoints. Every handler resolves the
// identity, consults the policy, and only then touches the engine; demo and
// staff callers get fabricated payloads with no store I/O at all.
type Handler struct {
	engine Service
}

func NewHandler(engine Service) *Handler {
	return &Handler{engine: engine}
}

// StartRequest carries the course labels plus the learner profile fields
// that the launch payload exposed to the UI
type StartRequest struct {
	Course      CourseInfo `json:"course"`
	DisplayName string     `json:"displayName"`
	Institution string     `json:"institution"`
}

// AdvanceRequest is one phase-completion event
type AdvanceRequest struct {
	CurrentPhase string `json:"currentPhase"`
	NextPhase    string `json:"nextPhase"`
	TimeSpentMs  int64  `json:"timeSpentMs"`
	NewProgress  *int   `json:"newProgress"`
}

// QuizRequest is a quiz completion
type QuizRequest struct {
	Responses      map[string]QuizResponse `json:"responses"`
	TotalQuestions int                     `json:"totalQuestions"`
}

// CompleteRequest finalizes the run
type CompleteRequest struct {
	TotalTimeMs     int64        `json:"totalTimeMs"`
	PhasesCompleted *int         `json:"phasesCompleted"`
	QuizResults     *QuizSummary `json:"quizResults"`
}

func (h *Handler) Start(c *fiber.Ctx) error {
	identity := auth.GetIdentity(c)
	if identity == nil {
		return utils.ErrorResponse(c, utils.ErrUnauthenticated.Message, utils.ErrUnauthenticated.Status)
	}

	var req StartRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "invalid_body", fiber.StatusBadRequest)
	}

	mode := policy.Classify(identity.Claims.Role, identity.Claims.SessionType)
	if mode != policy.ModePersisted {
		return utils.SuccessResponse(c, fiber.Map{
			"progress": policy.SyntheticStart(mode),
			"resumed":  false,
		}, "Training started")
	}

	sessionID, err := uuid.Parse(identity.Claims.SessionID)
	if err != nil {
		return utils.ErrorResponse(c, utils.ErrUnauthenticated.Message, utils.ErrUnauthenticated.Status)
	}

	learner := LearnerIdentity{
		UserID:      identity.Claims.UserID,
		Email:       identity.Claims.Email,
		DisplayName: req.DisplayName,
		Institution: req.Institution,
		EnrolledAt:  &identity.CreatedAt,
	}

	run, resumed, err := h.engine.StartOrResume(learner, sessionID, req.Course)
	if err != nil {
		return h.engineError(c, identity, err)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"progress": runPayload(run),
		"resumed":  resumed,
	}, "Training started")
}

func (h *Handler) AdvancePhase(c *fiber.Ctx) error {
	identity := auth.GetIdentity(c)
	if identity == nil {
		return utils.ErrorResponse(c, utils.ErrUnauthenticated.Message, utils.ErrUnauthenticated.Status)
	}

	var req AdvanceRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "invalid_body", fiber.StatusBadRequest)
	}

	mode := policy.Classify(identity.Claims.Role, identity.Claims.SessionType)
	if mode != policy.ModePersisted {
		return utils.SuccessResponse(c, fiber.Map{
			"progress": policy.SyntheticAdvance(mode, req.CurrentPhase),
		}, "Phase advanced")
	}

	run, err := h.engine.AdvancePhase(identity.Claims.Email, AdvanceInput{
		TimeSpentMs: req.TimeSpentMs,
		NextPhase:   req.NextPhase,
		NewProgress: req.NewProgress,
	})
	if err != nil {
		return h.engineError(c, identity, err)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"progress": runPayload(run),
	}, "Phase advanced")
}

func (h *Handler) RecordQuiz(c *fiber.Ctx) error {
	identity := auth.GetIdentity(c)
	if identity == nil {
		return utils.ErrorResponse(c, utils.ErrUnauthenticated.Message, utils.ErrUnauthenticated.Status)
	}

	var req QuizRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "invalid_body", fiber.StatusBadRequest)
	}

	mode := policy.Classify(identity.Claims.Role, identity.Claims.SessionType)
	if mode != policy.ModePersisted {
		// Scoring is pure; demo callers still see their result
		return utils.SuccessResponse(c, fiber.Map{
			"quiz": ScoreQuiz(req.Responses, req.TotalQuestions),
		}, "Quiz recorded")
	}

	run, summary, err := h.engine.RecordQuiz(identity.Claims.Email, req.Responses, req.TotalQuestions)
	if err != nil {
		return h.engineError(c, identity, err)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"quiz":     summary,
		"progress": runPayload(run),
	}, "Quiz recorded")
}

func (h *Handler) Complete(c *fiber.Ctx) error {
	identity := auth.GetIdentity(c)
	if identity == nil {
		return utils.ErrorResponse(c, utils.ErrUnauthenticated.Message, utils.ErrUnauthenticated.Status)
	}

	var req CompleteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "invalid_body", fiber.StatusBadRequest)
	}

	mode := policy.Classify(identity.Claims.Role, identity.Claims.SessionType)
	if mode != policy.ModePersisted {
		synthetic := policy.SyntheticStart(mode)
		synthetic.OverallProgress = 100
		return utils.SuccessResponse(c, fiber.Map{
			"progress": synthetic,
		}, "Training completed")
	}

	run, err := h.engine.Complete(identity.Claims.Email, CompleteInput{
		TotalTimeMs:     req.TotalTimeMs,
		PhasesCompleted: req.PhasesCompleted,
		Quiz:            req.QuizResults,
	})
	if err != nil {
		return h.engineError(c, identity, err)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"progress":     runPayload(run),
		"finalResults": run.FinalResults,
	}, "Training completed")
}

func (h *Handler) Progress(c *fiber.Ctx) error {
	identity := auth.GetIdentity(c)
	if identity == nil {
		return utils.ErrorResponse(c, utils.ErrUnauthenticated.Message, utils.ErrUnauthenticated.Status)
	}

	mode := policy.Classify(identity.Claims.Role, identity.Claims.SessionType)
	if mode != policy.ModePersisted {
		return utils.SuccessResponse(c, fiber.Map{
			"progress": policy.SyntheticStart(mode),
		}, "Progress")
	}

	run, err := h.engine.ActiveRun(identity.Claims.Email)
	if err != nil {
		return h.engineError(c, identity, err)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"progress": runPayload(run),
	}, "Progress")
}

// engineError maps engine failures onto the API taxonomy. Write failures
// surface as retryable; there is no degraded path for training mutations.
func (h *Handler) engineError(c *fiber.Ctx, identity *session.Identity, err error) error {
	if errors.Is(err, ErrNoActiveRun) {
		return utils.ErrorResponse(c, utils.ErrNoActiveRun.Message, utils.ErrNoActiveRun.Status)
	}

	slog.Error("Training store operation failed",
		"error", err,
		"session_id", identity.Claims.SessionID,
		"email", identity.Claims.Email)
	return utils.ErrorResponse(c, utils.ErrStoreUnavailable.Message, utils.ErrStoreUnavailable.Status)
}

func runPayload(run *Run) fiber.Map {
	return fiber.Map{
		"id":               run.ID,
		"sessionId":        run.SessionID,
		"courseId":         run.CourseID,
		"courseName":       run.CourseName,
		"currentPhase":     run.CurrentPhase,
		"overallProgress":  run.OverallProgress,
		"phasesCompleted":  run.PhasesCompleted,
		"totalScore":       run.TotalScore,
		"totalTimeSeconds": run.TotalTimeSeconds,
		"status":           run.Status,
		"startedAt":        run.StartedAt,
		"completedAt":      run.CompletedAt,
	}
}
