package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	pkgauth "github.com/rkfood/rkfood-backend/pkg/auth"
	"github.com/rkfood/rkfood-backend/pkg/auth/session"
	"github.com/rkfood/rkfood-backend/pkg/config"
	"github.com/rkfood/rkfood-backend/pkg/db"
	"github.com/rkfood/rkfood-backend/pkg/db/models"
	"github.com/rkfood/rkfood-backend/pkg/enums"
	pkgerrors "github.com/rkfood/rkfood-backend/pkg/errors"
	"github.com/rkfood/rkfood-backend/pkg/logger"
	"github.com/rkfood/rkfood-backend/pkg/security"
)

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// otpStore is the Redis surface used for one-time login codes.
type otpStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	OTPKey(email string) string
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// OTPNotifier delivers a newly issued login code to the user.
type OTPNotifier interface {
	LoginOTPIssued(ctx context.Context, user *models.User, code string)
}

// Service exposes registration, password and OTP login, and token rotation.
type Service interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (*TokenPair, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// RegisterInput carries a new account request.
type RegisterInput struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8,max=128"`
	FirstName string  `json:"first_name" validate:"required,max=80"`
	LastName  string  `json:"last_name" validate:"required,max=80"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

// TokenPair is the result of a successful authentication.
type TokenPair struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user,omitempty"`
}

type service struct {
	repo     Repository
	sessions sessionManager
	otp      otpStore
	cfg      *config.Config
	logg     *logger.Logger
	notifier OTPNotifier
	now      func() time.Time
}

// NewService builds the auth service. The OTP notifier is optional.
func NewService(repo Repository, sessions sessionManager, otp otpStore, cfg *config.Config, logg *logger.Logger, notifier OTPNotifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("auth repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if otp == nil {
		return nil, fmt.Errorf("otp store required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		sessions: sessions,
		otp:      otp,
		cfg:      cfg,
		logg:     logg,
		notifier: notifier,
		now:      time.Now,
	}, nil
}

// Register creates a customer account with an argon2id password hash.
func (s *service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if len(in.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	if !strings.ContainsFunc(in.Password, unicode.IsDigit) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must contain at least one digit")
	}

	hash, err := security.HashPassword(in.Password, s.cfg.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.repo.CreateUser(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        in.Phone,
		Role:         enums.MemberRoleCustomer,
		IsActive:     true,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "idx_users_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "user registered")
	return user, nil
}

// Login authenticates with email and password.
func (s *service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.lookupActiveUser(ctx, email)
	if err != nil {
		return nil, err
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	return s.issueTokens(ctx, user)
}

// RequestOTP issues a one-time login code for the email. The response does
// not reveal whether the address is registered.
func (s *service) RequestOTP(ctx context.Context, email string) error {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}

	user, err := s.repo.FindUserByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(ctx, "otp requested for unknown email")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up user")
	}
	if !user.IsActive {
		s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()), "otp requested for inactive user")
		return nil
	}

	code, err := security.GenerateOTP(s.cfg.OTP.Digits)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}
	if err := s.otp.Set(ctx, s.otp.OTPKey(normalized), code, s.cfg.OTP.TTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store otp")
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "login otp issued")
	if s.notifier != nil {
		s.notifier.LoginOTPIssued(ctx, user, code)
	}
	return nil
}

// VerifyOTP exchanges a valid one-time code for a token pair. The code is
// single use and attempts are capped per email.
func (s *service) VerifyOTP(ctx context.Context, email, code string) (*TokenPair, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" || strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and code required")
	}

	key := s.otp.OTPKey(normalized)
	stored, err := s.otp.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "code expired or not issued")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load otp")
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		attempts, err := s.otp.IncrWithTTL(ctx, key+":attempts", s.cfg.OTP.TTL)
		if err == nil && attempts >= int64(s.cfg.OTP.MaxAttempts) {
			_ = s.otp.Del(ctx, key, key+":attempts")
		}
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid code")
	}

	if err := s.otp.Del(ctx, key, key+":attempts"); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume otp")
	}

	user, err := s.lookupActiveUser(ctx, normalized)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

// Refresh rotates the refresh token and mints a fresh access token. The old
// access token may be expired; only its signature and jti matter here.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.cfg.JWT, accessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.repo.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account disabled")
	}

	access, err := pkgauth.MintAccessToken(s.cfg.JWT, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &TokenPair{AccessToken: access, RefreshToken: newRefresh, User: user}, nil
}

// Logout revokes the refresh session tied to the access token's jti.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// GetUser loads the account profile.
func (s *service) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity required")
	}
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) lookupActiveUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	return user, nil
}

func (s *service) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessID := session.NewAccessID()
	access, err := pkgauth.MintAccessToken(s.cfg.JWT, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	if err := s.repo.TouchLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()), "record last login failed")
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, User: user}, nil
}
