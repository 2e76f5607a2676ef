package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/yuta0709/nagara-care-api/internal/auth"
	"github.com/yuta0709/nagara-care-api/internal/domain"
	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/repository"
	"github.com/yuta0709/nagara-care-api/internal/store"
	"go.uber.org/zap"
)

// AuthService 登录与身份解析
type AuthService struct {
	users   repository.UsersRepository
	tokens  *auth.Tokens
	limiter store.LoginLimiter
	logger  *zap.Logger
}

func NewAuthService(users repository.UsersRepository, tokens *auth.Tokens, limiter store.LoginLimiter, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, limiter: limiter, logger: logger}
}

// SignInRequest 登录请求
type SignInRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

// SignInResponse 登录响应
type SignInResponse struct {
	AccessToken string `json:"accessToken"`
}

var errBadCredentials = policy.ErrForbidden("invalid loginId or password")

// SignIn checks the password and issues a bearer token. Unknown users and wrong
// passwords fail the same way. A limiter failure is logged and the attempt proceeds.
func (s *AuthService) SignIn(ctx context.Context, req SignInRequest) (*SignInResponse, error) {
	loginID := strings.TrimSpace(req.LoginID)
	if loginID == "" || req.Password == "" {
		return nil, policy.ErrBadRequest("loginId and password are required")
	}

	if s.limiter != nil {
		ok, wait, err := s.limiter.Allow(ctx, loginID)
		if err != nil {
			s.logger.Warn("Login limiter unavailable", zap.String("login_id", loginID), zap.Error(err))
		} else if !ok {
			return nil, tooManyAttempts(wait.Minutes())
		}
	}

	u, err := s.users.GetUserByLoginID(ctx, loginID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if u == nil || !auth.VerifyPassword(u.PasswordDigest, req.Password) {
		s.recordFailure(ctx, loginID)
		return nil, errBadCredentials
	}

	if s.limiter != nil {
		if err := s.limiter.Success(ctx, loginID); err != nil {
			s.logger.Warn("Failed to reset login failures", zap.String("login_id", loginID), zap.Error(err))
		}
	}
	token, err := s.tokens.Issue(u.UID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User signed in", zap.String("user_id", u.UID), zap.String("role", string(u.Role)))
	return &SignInResponse{AccessToken: token}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, loginID string) {
	if s.limiter == nil {
		return
	}
	blocked, _, err := s.limiter.Failure(ctx, loginID)
	if err != nil {
		s.logger.Warn("Failed to record login failure", zap.String("login_id", loginID), zap.Error(err))
		return
	}
	if blocked {
		s.logger.Warn("Login temporarily blocked", zap.String("login_id", loginID))
	}
}

func tooManyAttempts(minutes float64) error {
	m := int(math.Ceil(minutes))
	if m < 1 {
		m = 1
	}
	return policy.ErrTooManyRequests(fmt.Sprintf("too many failed sign-in attempts, retry in %d minutes", m))
}

// Authenticate resolves the caller for a bearer token. The user must still exist.
func (s *AuthService) Authenticate(ctx context.Context, token string) (policy.Caller, error) {
	sub, err := s.tokens.Parse(token)
	if err != nil {
		return policy.Caller{}, policy.ErrUnauthenticated("invalid or expired token")
	}
	u, err := s.users.GetUser(ctx, sub)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return policy.Caller{}, policy.ErrUnauthenticated("user no longer exists")
		}
		return policy.Caller{}, fmt.Errorf("failed to load user: %w", err)
	}
	return policy.CallerFromUser(u), nil
}

// Me returns the caller's own user row.
func (s *AuthService) Me(ctx context.Context, caller policy.Caller) (*domain.User, error) {
	u, err := s.users.GetUser(ctx, caller.UserID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return u, nil
}
