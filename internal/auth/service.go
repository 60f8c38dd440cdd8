// Package auth はパスワード認証、トークン発行・検証を提供する。
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/jobboard/internal/metrics"
	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/repository"
	"github.com/hitoshi/jobboard/internal/validation"
)

// ユーザー向けメッセージ
const (
	MsgRegisterIncomplete = "Please fill full form!"
	MsgInvalidEmail       = "Please provide a valid Email!"
	MsgPasswordTooShort   = "Password must contain at least 6 characters!"
	MsgPasswordTooLong    = "Password cannot exceed 72 characters!"
	MsgInvalidRole        = "Please provide a valid role!"
	MsgEmailRegistered    = "Email already registered!"
	MsgLoginIncomplete    = "Please provide email, password and role!"
	MsgLoginUserNotFound  = "User with provided email and role not found!"
	MsgInvalidCredentials = "Invalid Email Or Password."
)

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"required"`
}

// LoginInput はログインの入力。
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

// Session は認証成功時に返すユーザーとトークンの組。
type Session struct {
	User  *model.User
	Token string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	users     repository.UserRepository
	tokens    *TokenIssuer
	validator *validation.Validator
	metrics   metrics.MetricsCollector
	now       func() time.Time
}

// NewService はServiceを生成する。mcがnilの場合はメトリクスを記録しない。
func NewService(users repository.UserRepository, tokens *TokenIssuer, mc metrics.MetricsCollector) *Service {
	return &Service{
		users:     users,
		tokens:    tokens,
		validator: validation.New(),
		metrics:   metrics.OrNop(mc),
		now:       time.Now,
	}
}

// Register はユーザーを登録し、トークンを発行する。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Role = strings.TrimSpace(in.Role)

	if failures := s.validator.Validate(in); failures != nil {
		switch {
		case validation.HasTag(failures, "required"):
			return nil, model.NewBadRequestError(MsgRegisterIncomplete)
		case validation.HasField(failures, "email"):
			return nil, model.NewBadRequestError(MsgInvalidEmail)
		case validation.HasTag(failures, "max"):
			return nil, model.NewBadRequestError(MsgPasswordTooLong)
		default:
			return nil, model.NewBadRequestError(MsgPasswordTooShort)
		}
	}

	role, ok := model.ParseRole(in.Role)
	if !ok {
		return nil, model.NewBadRequestError(MsgInvalidRole)
	}

	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, model.NewInternalError(model.MsgInternalError, err)
	}
	if existing != nil {
		return nil, model.NewConflictError(MsgEmailRegistered)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, model.NewInternalError(model.MsgInternalError, err)
	}

	user := &model.User{
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Password:  hash,
		Role:      role,
		CreatedAt: s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewConflictError(MsgEmailRegistered)
		}
		return nil, model.NewInternalError(model.MsgInternalError, err)
	}

	s.metrics.RecordUserRegistered(string(role))
	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(role)),
	)

	return s.newSession(user)
}

// Login はメールアドレス・パスワード・ロールで認証し、トークンを発行する。
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Role = strings.TrimSpace(in.Role)

	if failures := s.validator.Validate(in); failures != nil {
		return nil, model.NewBadRequestError(MsgLoginIncomplete)
	}

	role, ok := model.ParseRole(in.Role)
	if !ok {
		s.metrics.RecordLoginFailure("user_not_found")
		return nil, model.NewNotFoundError(MsgLoginUserNotFound)
	}

	user, err := s.users.FindByEmailAndRole(ctx, in.Email, role)
	if err != nil {
		return nil, model.NewInternalError(model.MsgInternalError, err)
	}
	if user == nil {
		s.metrics.RecordLoginFailure("user_not_found")
		return nil, model.NewNotFoundError(MsgLoginUserNotFound)
	}

	if !CheckPassword(user.Password, in.Password) {
		s.metrics.RecordLoginFailure("bad_password")
		return nil, model.NewUnauthorizedError(MsgInvalidCredentials)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return s.newSession(user)
}

// Authenticate はトークンを検証し、対応するユーザーを返す。
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, model.NewUnauthorizedError(model.MsgNotAuthorized)
	}

	userID, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, model.NewUnauthorizedError(model.MsgTokenExpired)
		}
		return nil, &model.APIError{Kind: model.KindUnauthorized, Message: model.MsgTokenInvalid, Err: err}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidID) {
			return nil, model.NewUnauthorizedError(model.MsgTokenInvalid)
		}
		return nil, model.NewInternalError(model.MsgInternalError, err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError(model.MsgNotAuthorized)
	}

	return user, nil
}

// TokenTTL はトークンの有効期間を返す。
func (s *Service) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

func (s *Service) newSession(user *model.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, model.NewInternalError(model.MsgInternalError, err)
	}
	return &Session{User: user, Token: token}, nil
}
