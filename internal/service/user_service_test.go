package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"dmeflow/internal/domain"
	"dmeflow/internal/service"
	"dmeflow/mocks"
)

func TestUserService_Create_Success(t *testing.T) {
	repo := new(mocks.MockUserRepo)
	svc := service.NewUserService(repo)

	var created *domain.User
	repo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.User) }).
		Return(nil)

	user, err := svc.Create(context.Background(), service.CreateUserInput{
		Email:    "new@clinic.test",
		Password: "password123",
		FullName: "New Clinician",
		Role:     domain.RoleClinician,
	})

	require.NoError(t, err)
	assert.Equal(t, "new@clinic.test", user.Email)
	assert.True(t, user.IsActive)
	require.NotNil(t, created)
	// The stored hash must verify against the plaintext and never equal it.
	assert.NotEqual(t, "password123", created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("password123")))
}

func TestUserService_Create_InvalidRole(t *testing.T) {
	repo := new(mocks.MockUserRepo)
	svc := service.NewUserService(repo)

	_, err := svc.Create(context.Background(), service.CreateUserInput{
		Email:    "new@clinic.test",
		Password: "password123",
		FullName: "New User",
		Role:     domain.UserRole("superuser"),
	})

	assert.ErrorIs(t, err, domain.ErrInsufficientRole)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	repo := new(mocks.MockUserRepo)
	svc := service.NewUserService(repo)

	repo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrDuplicateEmail)

	_, err := svc.Create(context.Background(), service.CreateUserInput{
		Email:    "existing@clinic.test",
		Password: "password123",
		FullName: "Existing",
		Role:     domain.RoleAdmin,
	})

	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestUserService_Update_PartialFields(t *testing.T) {
	repo := new(mocks.MockUserRepo)
	svc := service.NewUserService(repo)

	user := &domain.User{
		ID:       uuid.New(),
		Email:    "old@clinic.test",
		FullName: "Old Name",
		Role:     domain.RoleClinician,
		IsActive: true,
	}
	repo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	repo.On("Update", mock.Anything, user).Return(nil)

	newName := "New Name"
	inactive := false
	updated, err := svc.Update(context.Background(), user.ID, service.UpdateUserInput{
		FullName: &newName,
		IsActive: &inactive,
	})

	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.FullName)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "old@clinic.test", updated.Email)
}

func TestUserService_Update_InvalidRole(t *testing.T) {
	repo := new(mocks.MockUserRepo)
	svc := service.NewUserService(repo)

	user := &domain.User{ID: uuid.New(), Role: domain.RoleClinician}
	repo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	badRole := domain.UserRole("root")
	_, err := svc.Update(context.Background(), user.ID, service.UpdateUserInput{Role: &badRole})

	assert.ErrorIs(t, err, domain.ErrInsufficientRole)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUserService_Delete(t *testing.T) {
	repo := new(mocks.MockUserRepo)
	svc := service.NewUserService(repo)

	id := uuid.New()
	repo.On("Delete", mock.Anything, id).Return(nil)

	assert.NoError(t, svc.Delete(context.Background(), id))
	repo.AssertExpectations(t)
}
