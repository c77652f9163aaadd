package training

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/karowl/simportal/internal/database"
)

// Status is the lifecycle state of a training run. There is no transition
// out of completed or abandoned.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// LearnerIdentity is the durable key of a run. Email identifies the learner
// across relaunches; the session ID changes on every login.
type LearnerIdentity struct {
	UserID      string     `gorm:"column:learner_user_id" json:"userId"`
	Email       string     `gorm:"column:learner_email" json:"email"`
	DisplayName string     `gorm:"column:learner_name" json:"displayName"`
	Institution string     `gorm:"column:institution" json:"institution"`
	EnrolledAt  *time.Time `gorm:"column:enrolled_at" json:"enrolledAt,omitempty"`
}

// FinalResults is the immutable completion summary, written once
type FinalResults struct {
	TotalScore       int          `json:"totalScore"`
	MaxScore         int          `json:"maxScore"`
	Percentage       int          `json:"percentage"`
	Grade            string       `json:"grade"`
	PhasesCompleted  int          `json:"phasesCompleted"`
	TotalTimeSeconds int64        `json:"totalTimeSeconds"`
	Quiz             *QuizSummary `json:"quiz,omitempty"`
}

// Value implements driver.Valuer for the jsonb column
func (f FinalResults) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan implements sql.Scanner for the jsonb column
func (f *FinalResults) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	default:
		return errors.New("unsupported type for final results")
	}
}

// Run is one continuous attempt through the phase sequence. At most one
// active run exists per learner email; the partial unique index on
// training_runs enforces it at the store and the engine handles the race.
type Run struct {
	database.BaseModel

	SessionID uuid.UUID       `gorm:"column:session_id;type:uuid;index"`
	Learner   LearnerIdentity `gorm:"embedded"`

	CourseID   string `gorm:"column:course_id"`
	CourseName string `gorm:"column:course_name"`

	CurrentPhase     string `gorm:"column:current_phase"`
	OverallProgress  int    `gorm:"column:overall_progress;default:0"`
	PhasesCompleted  int    `gorm:"column:phases_completed;default:0"`
	TotalScore       int    `gorm:"column:total_score;default:0"`
	TotalTimeSeconds int64  `gorm:"column:total_time_seconds;default:0"`

	Status       Status        `gorm:"column:status;type:text;default:'active'"`
	StartedAt    time.Time     `gorm:"column:started_at"`
	CompletedAt  *time.Time    `gorm:"column:completed_at"`
	FinalResults *FinalResults `gorm:"column:final_results;type:jsonb"`
}

func (Run) TableName() string {
	return "training_runs"
}
