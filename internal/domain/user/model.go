package user

import (
	"github.com/karowl/simportal/internal/database"
	"github.com/karowl/simportal/internal/domain/token"
)

// AccountStatus tracks the approval state of a staff account
type AccountStatus string

const (
	StatusPending  AccountStatus = "pending"
	StatusApproved AccountStatus = "approved"
	StatusRejected AccountStatus = "rejected"
)

// User is a locally registered staff account (instructor or administrator).
// Learners never have rows here; they arrive through platform launches.
type User struct {
	database.BaseModel

	Email       string        `gorm:"column:email;unique;not null"`
	DisplayName string        `gorm:"column:display_name;not null"`
	Password    string        `gorm:"column:password;not null"`
	Role        token.Role    `gorm:"column:role;type:text;not null"`
	Status      AccountStatus `gorm:"column:status;type:text;default:'pending'"`
}

func (User) TableName() string {
	return "users"
}
