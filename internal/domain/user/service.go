package user

import (
	"errors"

	"github.com/karowl/simportal/internal/domain/token"
)

var (
	// ErrEmailExists is returned when registering with an email that already exists
	ErrEmailExists = errors.New("email already exists")
	// ErrInvalidCredentials is returned when the email/password pair does not match
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPendingApproval is returned when the account has not been approved yet
	ErrPendingApproval = errors.New("account pending approval")
	// ErrRejected is returned when the account was rejected
	ErrRejected = errors.New("account rejected")
	// ErrWrongRole is returned when the account role cannot use staff login
	ErrWrongRole = errors.New("wrong role for this login")
)

// RegisterRequest represents the input for staff registration
type RegisterRequest struct {
	Email       string     `json:"email"`
	Password    string     `json:"password"`
	DisplayName string     `json:"displayName"`
	Role        token.Role `json:"role"`
}

// Service interface for staff account operations
type Service interface {
	Register(req RegisterRequest) (*User, error)
	Authenticate(email, password string) (*User, error)
}

type service struct {
	repo Repository
}

// NewService creates a new user service
func NewService(repo Repository) Service {
	return &service{repo}
}

// Register creates a staff account in pending state. Administrators approve
// accounts out of band; until then Authenticate refuses the login.
func (s *service) Register(req RegisterRequest) (*User, error) {
	if !req.Role.IsStaff() {
		return nil, ErrWrongRole
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(req.Email); err == nil {
		return nil, ErrEmailExists
	}

	u := &User{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    hashedPassword,
		Role:        req.Role,
		Status:      StatusPending,
	}

	if err := s.repo.Create(u); err != nil {
		return nil, err
	}

	return u, nil
}

// Authenticate verifies the password and the approval state of the account
func (s *service) Authenticate(email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !VerifyPassword(password, u.Password) {
		return nil, ErrInvalidCredentials
	}

	switch u.Status {
	case StatusApproved:
	case StatusPending:
		return nil, ErrPendingApproval
	case StatusRejected:
		return nil, ErrRejected
	default:
		return nil, ErrInvalidCredentials
	}

	if !u.Role.IsStaff() {
		return nil, ErrWrongRole
	}

	return u, nil
}
