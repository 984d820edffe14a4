package service

import (
	"context"
	"os"
	"testing"
	"time"

	"taskboard/internal/common/security"
	"taskboard/internal/domain/model"
	"taskboard/internal/domain/repository"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	security.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type fixture struct {
	users     repository.UserRepository
	tasks     repository.TaskRepository
	denylist  repository.TokenDenylist
	codec     *security.TokenCodec
	transport *security.CookieTransport
	auth      *AuthService
	identity  *IdentityService
	taskSvc   *TaskService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:     repository.NewMemoryUserRepository(),
		tasks:     repository.NewMemoryTaskRepository(),
		denylist:  repository.NewMemoryTokenDenylist(),
		codec:     security.NewTokenCodec([]byte(testSecret), time.Hour),
		transport: security.NewCookieTransport("access_token", time.Hour, false),
	}
	f.auth = NewAuthService(f.users, f.codec, f.denylist, false)
	f.identity = NewIdentityService(f.users, f.codec, f.transport, f.denylist)
	f.taskSvc = NewTaskService(f.tasks)
	return f
}

// seedUser stores a user directly, bypassing registration policy.
func (f *fixture) seedUser(t *testing.T, id string, role model.Role) *model.User {
	t.Helper()
	now := time.Now().UTC()
	u := &model.User{
		ID:        id,
		Name:      id,
		Email:     id + "@example.com",
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func ptr[T any](v T) *T {
	return &v
}
