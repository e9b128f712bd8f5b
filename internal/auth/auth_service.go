package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	autherrors "github.com/Abhinav7558/employee-management-system/internal/auth/errors"
	"github.com/Abhinav7558/employee-management-system/internal/auth/token"
	"github.com/Abhinav7558/employee-management-system/internal/shared/apperror"
	"github.com/Abhinav7558/employee-management-system/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const DefaultRole = "user"

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (ProfileResponse, error)
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (TokenResponse, error)
	ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error
	Profile(ctx context.Context, userID string) (ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (ProfileResponse, error)
}

type service struct {
	repo        Repository
	tokens      *token.Manager
	policy      *PasswordPolicy
	defaultRole string
	hashCost    int
	logger      *zap.Logger
}

type Options struct {
	DefaultRole string
	// HashCost defaults to bcrypt.DefaultCost.
	HashCost int
}

func NewService(
	repo Repository,
	tokens *token.Manager,
	policy *PasswordPolicy,
	opts Options,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	if policy == nil {
		policy = NewPasswordPolicy(DefaultMinPasswordLength)
	}
	if opts.DefaultRole == "" {
		opts.DefaultRole = DefaultRole
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	return &service{
		repo:        repo,
		tokens:      tokens,
		policy:      policy,
		defaultRole: opts.DefaultRole,
		hashCost:    opts.HashCost,
		logger:      l,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (ProfileResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("register requested",
		zap.String("request_id", rid),
		zap.String("username", req.Username),
	)

	user := &User{
		ID:        uuid.New(),
		Username:  strings.TrimSpace(req.Username),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      s.defaultRole,
		IsActive:  true,
	}

	if problems := s.policy.Check(req.Password, user.Attributes()); len(problems) > 0 {
		s.logger.Warn("register rejected by password policy",
			zap.String("request_id", rid),
			zap.Int("violations", len(problems)),
		)
		return ProfileResponse{}, policyError(problems)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		s.logger.Error("register hash failed", zap.Error(err))
		return ProfileResponse{}, err
	}
	user.PasswordHash = string(hash)

	if err := s.repo.Create(ctx, user); err != nil {
		s.logger.Warn("register persist failed", zap.String("request_id", rid), zap.Error(err))
		return ProfileResponse{}, mapRepositoryError(err)
	}

	s.logger.Info("register success",
		zap.String("request_id", rid),
		zap.String("user_id", user.ID.String()),
	)
	return toProfile(*user), nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (TokenResponse, error) {
	s.logger.Debug("login requested", zap.String("username", req.Username))

	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if !errors.Is(mapRepositoryError(err), autherrors.ErrUserNotFound) {
			s.logger.Error("login lookup failed", zap.Error(err))
			return TokenResponse{}, err
		}
		s.logger.Warn("login unknown user", zap.String("username", req.Username))
		return TokenResponse{}, autherrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		s.logger.Warn("login inactive user", zap.String("user_id", user.ID.String()))
		return TokenResponse{}, autherrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login wrong password", zap.String("user_id", user.ID.String()))
		return TokenResponse{}, autherrors.ErrInvalidCredentials
	}

	return s.issue(*user)
}

// Refresh rotates both tokens for the holder of a valid refresh token.
func (s *service) Refresh(ctx context.Context, refreshToken string) (TokenResponse, error) {
	claims, err := s.tokens.Parse(refreshToken, token.TypeRefresh)
	if err != nil {
		s.logger.Warn("refresh token rejected", zap.Error(err))
		return TokenResponse{}, autherrors.ErrInvalidRefreshToken
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		s.logger.Warn("refresh user lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
		return TokenResponse{}, autherrors.ErrInvalidRefreshToken
	}
	if !user.IsActive {
		return TokenResponse{}, autherrors.ErrInvalidRefreshToken
	}

	return s.issue(*user)
}

func (s *service) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	s.logger.Debug("change password requested", zap.String("user_id", userID))

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		s.logger.Warn("change password wrong old password", zap.String("user_id", userID))
		return autherrors.ErrIncorrectPassword
	}

	if problems := s.policy.Check(req.NewPassword, user.Attributes()); len(problems) > 0 {
		for i := range problems {
			problems[i].Field = "new_password"
		}
		return policyError(problems)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.hashCost)
	if err != nil {
		s.logger.Error("change password hash failed", zap.Error(err))
		return err
	}

	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		s.logger.Error("change password persist failed", zap.String("user_id", userID), zap.Error(err))
		return mapRepositoryError(err)
	}

	s.logger.Info("change password success", zap.String("user_id", userID))
	return nil
}

func (s *service) Profile(ctx context.Context, userID string) (ProfileResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return ProfileResponse{}, err
	}
	return toProfile(*user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (ProfileResponse, error) {
	s.logger.Debug("update profile requested", zap.String("user_id", userID))

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return ProfileResponse{}, err
	}

	if req.Username != nil {
		user.Username = strings.TrimSpace(*req.Username)
		if user.Username == "" {
			return ProfileResponse{}, apperror.RequiredField("username")
		}
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
		if user.Email == "" {
			return ProfileResponse{}, apperror.RequiredField("email")
		}
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		s.logger.Warn("update profile persist failed", zap.String("user_id", userID), zap.Error(err))
		return ProfileResponse{}, mapRepositoryError(err)
	}

	s.logger.Info("update profile success", zap.String("user_id", userID))
	return toProfile(*user), nil
}

func (s *service) findUser(ctx context.Context, userID string) (*User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, apperror.ErrUnauthorized
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("user lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil, mapRepositoryError(err)
	}
	return user, nil
}

func (s *service) issue(user User) (TokenResponse, error) {
	pair, err := s.tokens.Issue(user.ID.String(), user.Role)
	if err != nil {
		s.logger.Error("token issue failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		return TokenResponse{}, err
	}
	s.logger.Info("tokens issued", zap.String("user_id", user.ID.String()))
	return TokenResponse{Pair: pair, User: toProfile(user)}, nil
}

func policyError(problems []apperror.FieldError) error {
	if len(problems) == 1 {
		return apperror.Validation(problems[0].Message, problems)
	}
	return apperror.Validation(autherrors.ErrWeakPassword.Message, problems)
}

func toProfile(u User) ProfileResponse {
	return ProfileResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}
