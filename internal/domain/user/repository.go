package user

import "gorm.io/gorm"

// Repository interface for staff account operations
type Repository interface {
	Create(user *User) error
	GetByID(id string) (*User, error)
	GetByEmail(email string) (*User, error)
	UpdateStatus(id string, status AccountStatus) error
	ListByStatus(status AccountStatus) ([]User, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new user repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) Create(user *User) error {
	return r.db.Create(user).Error
}

func (r *repository) GetByID(id string) (*User, error) {
	var user User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetByEmail(email string) (*User, error) {
	var user User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) UpdateStatus(id string, status AccountStatus) error {
	return r.db.Model(&User{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) ListByStatus(status AccountStatus) ([]User, error) {
	var users []User
	if err := r.db.Where("status = ?", status).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
