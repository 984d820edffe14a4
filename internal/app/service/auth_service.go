package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskboard/internal/common"
	"taskboard/internal/common/security"
	"taskboard/internal/domain/model"
	"taskboard/internal/domain/repository"
	"taskboard/internal/platform/logger"

	"github.com/google/uuid"
)

var (
	errInvalidCredentials = common.NewError(common.ErrUnauthorized, "Invalid credentials")
	errPasswordTooLong    = common.NewValidationError(common.FieldError{
		Field:   "password",
		Message: "Password must be at most 72 bytes",
	})
)

type AuthService struct {
	userRepo          repository.UserRepository
	codec             *security.TokenCodec
	denylist          repository.TokenDenylist // nil: logout is advisory only
	allowRoleOnSignup bool
	now               func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	codec *security.TokenCodec,
	denylist repository.TokenDenylist,
	allowRoleOnSignup bool,
) *AuthService {
	return &AuthService{
		userRepo:          userRepo,
		codec:             codec,
		denylist:          denylist,
		allowRoleOnSignup: allowRoleOnSignup,
		now:               time.Now,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by Register and Login. The token is handed to the
// transport and never serialised into a response body.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"-"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	name := strings.TrimSpace(req.Name)
	email := model.NormalizeEmail(req.Email)
	if name == "" {
		return nil, common.NewValidationError(common.FieldError{Field: "name", Message: "Name is required"})
	}

	role := model.RoleUser
	if req.Role != "" && s.allowRoleOnSignup {
		parsed, err := model.ParseRole(req.Role)
		if err != nil {
			return nil, common.NewValidationError(common.FieldError{Field: "role", Message: "Invalid role"})
		}
		role = parsed
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, common.NewError(common.ErrConflict, "Email already registered")
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user, err := s.register(ctx, name, email, req.Password, role)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			// Lost a race with a concurrent registration.
			return nil, common.NewError(common.ErrConflict, "Email already registered")
		}
		return nil, err
	}

	token, err := s.codec.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, model.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			security.RejectPassword(req.Password)
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, errInvalidCredentials
	}

	token, err := s.codec.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Logout revokes the presented token when a denylist is configured. The
// caller always clears the client cookie regardless.
func (s *AuthService) Logout(ctx context.Context, claims *security.Claims) error {
	if s.denylist == nil || claims == nil || claims.ID == "" {
		return nil
	}
	if err := s.denylist.Revoke(ctx, claims.ID, claims.Remaining(s.now())); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// EnsureAdmin creates an admin account for email, or promotes the existing
// account. Used by the createadmin command.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (*model.User, bool, error) {
	email = model.NormalizeEmail(email)
	existing, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != model.RoleAdmin {
			if err := s.userRepo.UpdateRole(ctx, existing.ID, model.RoleAdmin); err != nil {
				return nil, false, fmt.Errorf("failed to promote user: %w", err)
			}
			existing.Role = model.RoleAdmin
		}
		return existing, false, nil
	case !errors.Is(err, common.ErrNotFound):
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	if len(password) < 6 {
		return nil, false, common.NewValidationError(common.FieldError{Field: "password", Message: "Password must be at least 6 characters"})
	}
	res, err := s.register(ctx, name, email, password, model.RoleAdmin)
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}

func (s *AuthService) register(ctx context.Context, name, email, password string, role model.Role) (*model.User, error) {
	if len(password) > security.MaxPasswordBytes {
		return nil, errPasswordTooLong
	}
	hashedPassword, err := security.HashPassword(password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return nil, errPasswordTooLong
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := s.now().UTC()
	user := &model.User{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(name),
		Email:          email,
		HashedPassword: hashedPassword,
		Role:           role,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}
