package training

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(run *Run) error
	FindActiveByEmail(email string) (*Run, error)
	RepointSession(id uuid.UUID, sessionID uuid.UUID) error
	AbandonActiveByEmail(email string) (int64, error)
	UpdatePhase(id uuid.UUID, patch PhasePatch) error
	AddScore(id uuid.UUID, delta int) error
	Complete(id uuid.UUID, patch CompletionPatch) error
}

// PhasePatch is the per-phase mutation applied to an active run
type PhasePatch struct {
	CurrentPhase     string
	OverallProgress  int
	PhasesCompleted  int
	TotalTimeSeconds int64
}

// CompletionPatch is the terminal mutation applied once
type CompletionPatch struct {
	PhasesCompleted  int
	TotalTimeSeconds int64
	CompletedAt      time.Time
	FinalResults     *FinalResults
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) Insert(run *Run) error {
	return r.db.Create(run).Error
}

func (r *repository) FindActiveByEmail(email string) (*Run, error) {
	var run Run
	err := r.db.Where("learner_email = ? AND status = ?", email, StatusActive).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *repository) RepointSession(id uuid.UUID, sessionID uuid.UUID) error {
	return r.db.Model(&Run{}).
		Where("id = ? AND status = ?", id, StatusActive).
		Update("session_id", sessionID).Error
}

func (r *repository) AbandonActiveByEmail(email string) (int64, error) {
	res := r.db.Model(&Run{}).
		Where("learner_email = ? AND status = ?", email, StatusActive).
		Update("status", StatusAbandoned)
	return res.RowsAffected, res.Error
}

func (r *repository) UpdatePhase(id uuid.UUID, patch PhasePatch) error {
	return r.db.Model(&Run{}).
		Where("id = ? AND status = ?", id, StatusActive).
		Updates(map[string]any{
			"current_phase":      patch.CurrentPhase,
			"overall_progress":   patch.OverallProgress,
			"phases_completed":   patch.PhasesCompleted,
			"total_time_seconds": patch.TotalTimeSeconds,
		}).Error
}

func (r *repository) AddScore(id uuid.UUID, delta int) error {
	return r.db.Model(&Run{}).
		Where("id = ? AND status = ?", id, StatusActive).
		Update("total_score", gorm.Expr("total_score + ?", delta)).Error
}

func (r *repository) Complete(id uuid.UUID, patch CompletionPatch) error {
	return r.db.Model(&Run{}).
		Where("id = ? AND status = ?", id, StatusActive).
		Updates(map[string]any{
			"status":             StatusCompleted,
			"overall_progress":   100,
			"phases_completed":   patch.PhasesCompleted,
			"total_time_seconds": patch.TotalTimeSeconds,
			"completed_at":       patch.CompletedAt,
			"final_results":      patch.FinalResults,
		}).Error
}
