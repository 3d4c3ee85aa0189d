package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/domain/entities"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/infrastructure/config"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/infrastructure/logger"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/ports"
)

type fakeUserRepo struct {
	byEmail map[string]*entities.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*entities.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entities.User) error {
	r.byEmail[user.Email] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	return u, nil
}

func newTestAuthService(repo ports.UserRepository) *AuthService {
	return NewAuthService(repo, config.JWTConfig{
		Secret:    "test-secret-at-least-32-chars-long",
		Issuer:    "tasktracker-test",
		ExpiresIn: time.Hour,
	}, logger.NewNop())
}

func TestRegisterIssuesValidToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	resp, err := svc.Register(context.Background(), ports.RegisterRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Empty(t, resp.User.PasswordHash)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), ports.RegisterRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), ports.RegisterRequest{
		Email:    "alice@example.com",
		Password: "other-password",
	})
	assert.ErrorIs(t, err, entities.ErrEmailTaken)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), ports.RegisterRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	_, unknownErr := svc.Login(context.Background(), ports.LoginRequest{
		Email:    "nobody@example.com",
		Password: "anything",
	})
	_, wrongErr := svc.Login(context.Background(), ports.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
}

func TestLoginSucceedsWithCorrectPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), ports.RegisterRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), ports.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestValidateTokenRejectsGarbageAndWrongKey(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)

	other := NewAuthService(newFakeUserRepo(), config.JWTConfig{
		Secret:    "a-different-secret-also-32-chars!!",
		Issuer:    "tasktracker-test",
		ExpiresIn: time.Hour,
	}, logger.NewNop())

	resp, err := other.Register(context.Background(), ports.RegisterRequest{
		Email:    "bob@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken)
	assert.Error(t, err)
}
