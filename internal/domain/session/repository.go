package session

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(sess *Session) error
	FindByID(id uuid.UUID) (*Session, error)
	FindActiveByID(id uuid.UUID) (*Session, error)
	FindLatestByUserID(userID string) (*Session, error)
	ListActiveByUserID(userID string) ([]Session, error)
	MarkExpired(id uuid.UUID) error
	Terminate(id uuid.UUID) error
	ExpireAllForUser(userID string) error
	TouchActivity(id uuid.UUID, t time.Time) error
	ExtendExpiry(id uuid.UUID, newExpiry time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) Create(sess *Session) error {
	return r.db.Create(sess).Error
}

func (r *repository) FindByID(id uuid.UUID) (*Session, error) {
	var sess Session
	if err := r.db.Where("id = ?", id).First(&sess).Error; err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *repository) FindActiveByID(id uuid.UUID) (*Session, error) {
	var sess Session
	err := r.db.Where("id = ? AND status = ?", id, StatusActive).First(&sess).Error
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *repository) ListActiveByUserID(userID string) ([]Session, error) {
	var sessions []Session
	err := r.db.Where("user_id = ? AND status = ?", userID, StatusActive).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *repository) FindLatestByUserID(userID string) (*Session, error) {
	var sess Session
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&sess).Error
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *repository) MarkExpired(id uuid.UUID) error {
	return r.db.Model(&Session{}).
		Where("id = ? AND status = ?", id, StatusActive).
		Update("status", StatusExpired).Error
}

func (r *repository) Terminate(id uuid.UUID) error {
	return r.db.Model(&Session{}).
		Where("id = ? AND status = ?", id, StatusActive).
		Update("status", StatusTerminated).Error
}

func (r *repository) ExpireAllForUser(userID string) error {
	return r.db.Model(&Session{}).
		Where("user_id = ? AND status = ?", userID, StatusActive).
		Update("status", StatusExpired).Error
}

func (r *repository) TouchActivity(id uuid.UUID, t time.Time) error {
	return r.db.Model(&Session{}).
		Where("id = ? AND status = ?", id, StatusActive).
		Update("last_activity_at", t).Error
}

func (r *repository) ExtendExpiry(id uuid.UUID, newExpiry time.Time) error {
	return r.db.Model(&Session{}).
		Where("id = ? AND status = ?", id, StatusActive).
		Update("expires_at", newExpiry).Error
}
