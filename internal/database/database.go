package database

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/karowl/simportal/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// BaseModel is embedded by every persisted model
type BaseModel struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// BeforeCreate assigns an ID if the caller did not set one
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Connect opens a Postgres connection. The returned handle is constructed
// once at process start and passed into each repository; nothing in this
// package holds it.
func Connect(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// IsConflict reports whether err is a unique-constraint violation
func IsConflict(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsNotFound reports whether err is a missing-row lookup
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
