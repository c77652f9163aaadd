package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/karowl/simportal/internal/domain/token"
)

type fakeRepo struct {
	byEmail map[string]*User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byEmail: make(map[string]*User)}
}

func (f *fakeRepo) Create(u *User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return gorm.ErrDuplicatedKey
	}
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeRepo) GetByID(id string) (*User, error) {
	for _, u := range f.byEmail {
		if u.ID.String() == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetByEmail(email string) (*User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeRepo) UpdateStatus(id string, status AccountStatus) error {
	for _, u := range f.byEmail {
		if u.ID.String() == id {
			u.Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepo) ListByStatus(status AccountStatus) ([]User, error) {
	var users []User
	for _, u := range f.byEmail {
		if u.Status == status {
			users = append(users, *u)
		}
	}
	return users, nil
}

func registerRequest() RegisterRequest {
	return RegisterRequest{
		Email:       "instructor@example.edu",
		Password:    "correct horse battery staple",
		DisplayName: "Test Instructor",
		Role:        token.RoleInstructor,
	}
}

func TestService_Register(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	u, err := svc.Register(registerRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, u.Status, "new staff accounts await approval")
	assert.Equal(t, token.RoleInstructor, u.Role)
	assert.NotEqual(t, "correct horse battery staple", u.Password, "password must be stored hashed")
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.Register(registerRequest())
	require.NoError(t, err)

	_, err = svc.Register(registerRequest())
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestService_Register_LearnerRoleRefused(t *testing.T) {
	svc := NewService(newFakeRepo())

	req := registerRequest()
	req.Role = token.RoleLearner
	_, err := svc.Register(req)
	assert.ErrorIs(t, err, ErrWrongRole)
}

func TestService_Authenticate(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	u, err := svc.Register(registerRequest())
	require.NoError(t, err)

	t.Run("pending account refused", func(t *testing.T) {
		_, err := svc.Authenticate("instructor@example.edu", "correct horse battery staple")
		assert.ErrorIs(t, err, ErrPendingApproval)
	})

	t.Run("approved account accepted", func(t *testing.T) {
		u.Status = StatusApproved
		got, err := svc.Authenticate("instructor@example.edu", "correct horse battery staple")
		require.NoError(t, err)
		assert.Equal(t, u.Email, got.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate("instructor@example.edu", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Authenticate("nobody@example.edu", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("rejected account refused", func(t *testing.T) {
		u.Status = StatusRejected
		_, err := svc.Authenticate("instructor@example.edu", "correct horse battery staple")
		assert.ErrorIs(t, err, ErrRejected)
	})
}
