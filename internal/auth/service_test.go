package auth

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	pkgauth "github.com/rkfood/rkfood-backend/pkg/auth"
	"github.com/rkfood/rkfood-backend/pkg/auth/session"
	"github.com/rkfood/rkfood-backend/pkg/config"
	"github.com/rkfood/rkfood-backend/pkg/db/models"
	"github.com/rkfood/rkfood-backend/pkg/enums"
	pkgerrors "github.com/rkfood/rkfood-backend/pkg/errors"
	"github.com/rkfood/rkfood-backend/pkg/logger"
)

type stubUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: map[uuid.UUID]*models.User{}}
}

func (s *stubUserRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return nil, fmt.Errorf(`duplicate key value violates unique constraint "idx_users_email"`)
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *stubUserRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	for _, user := range s.users {
		if user.Email == normalized {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserRepo) TouchLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	user, ok := s.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.LastLoginAt = &at
	return nil
}

type stubSessions struct {
	sessions map[string]string // accessID -> refresh token
	counter  int
}

func newStubSessions() *stubSessions {
	return &stubSessions{sessions: map[string]string{}}
}

func (s *stubSessions) Generate(ctx context.Context, accessID string) (string, error) {
	s.counter++
	token := fmt.Sprintf("refresh-%d", s.counter)
	s.sessions[accessID] = token
	return token, nil
}

func (s *stubSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := s.sessions[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.sessions, oldAccessID)
	newAccessID := session.NewAccessID()
	token, _ := s.Generate(ctx, newAccessID)
	return newAccessID, token, nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	delete(s.sessions, accessID)
	return nil
}

type stubOTPStore struct {
	values map[string]string
}

func newStubOTPStore() *stubOTPStore {
	return &stubOTPStore{values: map[string]string{}}
}

func (s *stubOTPStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.values[key] = fmt.Sprintf("%v", value)
	return nil
}

func (s *stubOTPStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return value, nil
}

func (s *stubOTPStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func (s *stubOTPStore) OTPKey(email string) string {
	return "rk:otp:" + strings.ToLower(email)
}

func (s *stubOTPStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	current := int64(0)
	if raw, ok := s.values[key]; ok {
		fmt.Sscanf(raw, "%d", &current)
	}
	current++
	s.values[key] = fmt.Sprintf("%d", current)
	return current, nil
}

type recordingOTPNotifier struct {
	codes []string
}

func (r *recordingOTPNotifier) LoginOTPIssued(ctx context.Context, user *models.User, code string) {
	r.codes = append(r.codes, code)
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:                 "test-secret",
			Issuer:                 "rkfood-test",
			ExpirationMinutes:      15,
			RefreshTokenTTLMinutes: 1440,
		},
		Password: config.PasswordConfig{
			ArgonMemoryKB:    8192,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
		OTP: config.OTPConfig{TTL: 10 * time.Minute, Digits: 6, MaxAttempts: 5},
	}
}

func newAuthService(t *testing.T) (Service, *stubUserRepo, *stubSessions, *stubOTPStore, *recordingOTPNotifier) {
	t.Helper()
	repo := newStubUserRepo()
	sessions := newStubSessions()
	otp := newStubOTPStore()
	notifier := &recordingOTPNotifier{}
	logg := logger.New(logger.Options{ServiceName: "auth-test", Output: io.Discard})
	svc, err := NewService(repo, sessions, otp, testConfig(), logg, notifier)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo, sessions, otp, notifier
}

func registerUser(t *testing.T, svc Service, email string) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		Email:     email,
		Password:  "correct horse battery 9",
		FirstName: "Asha",
		LastName:  "Rao",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newAuthService(t)
	user := registerUser(t, svc, "Asha@Example.com")
	if user.Email != "asha@example.com" {
		t.Fatalf("email = %q, want normalized lowercase", user.Email)
	}
	if user.Role != enums.MemberRoleCustomer {
		t.Fatalf("role = %s, want customer", user.Role)
	}
	if user.PasswordHash == "correct horse battery 9" {
		t.Fatal("password must not be stored in clear")
	}

	pair, err := svc.Login(context.Background(), "asha@example.com", "correct horse battery 9")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgauth.ParseAccessToken(testConfig().JWT, pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("token user = %s, want %s", claims.UserID, user.ID)
	}
	if pair.RefreshToken == "" {
		t.Fatal("refresh token missing")
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newAuthService(t)

	for _, password := range []string{"short1", "no digits in here"} {
		_, err := svc.Register(context.Background(), RegisterInput{
			Email:     "weak@example.com",
			Password:  password,
			FirstName: "A",
			LastName:  "B",
		})
		if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("password %q: err = %v, want VALIDATION", password, err)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newAuthService(t)
	registerUser(t, svc, "dup@example.com")

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:     "dup@example.com",
		Password:  "another password 7",
		FirstName: "B",
		LastName:  "C",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("err = %v, want CONFLICT", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newAuthService(t)
	registerUser(t, svc, "who@example.com")

	if _, err := svc.Login(context.Background(), "who@example.com", "wrong"); !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("err = %v, want UNAUTHORIZED", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "wrong"); !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("unknown email err = %v, want UNAUTHORIZED", err)
	}
}

func TestOTPLoginFlow(t *testing.T) {
	t.Parallel()

	svc, _, _, otp, notifier := newAuthService(t)
	registerUser(t, svc, "otp@example.com")

	if err := svc.RequestOTP(context.Background(), "OTP@example.com"); err != nil {
		t.Fatalf("request otp: %v", err)
	}
	if len(notifier.codes) != 1 {
		t.Fatalf("notified codes = %d, want 1", len(notifier.codes))
	}
	code := notifier.codes[0]
	if len(code) != 6 {
		t.Fatalf("code length = %d, want 6", len(code))
	}
	if stored := otp.values[otp.OTPKey("otp@example.com")]; stored != code {
		t.Fatalf("stored code %q does not match notified code %q", stored, code)
	}

	pair, err := svc.VerifyOTP(context.Background(), "otp@example.com", code)
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("token pair incomplete")
	}

	// The code is single use.
	if _, err := svc.VerifyOTP(context.Background(), "otp@example.com", code); !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("reuse err = %v, want UNAUTHORIZED", err)
	}
}

func TestRequestOTPUnknownEmailDoesNotLeak(t *testing.T) {
	t.Parallel()

	svc, _, _, otp, notifier := newAuthService(t)

	if err := svc.RequestOTP(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("request otp: %v", err)
	}
	if len(notifier.codes) != 0 {
		t.Fatal("no code should be issued for an unknown email")
	}
	if len(otp.values) != 0 {
		t.Fatal("nothing should be stored for an unknown email")
	}
}

func TestVerifyOTPWrongCodeCapsAttempts(t *testing.T) {
	t.Parallel()

	svc, _, _, otp, notifier := newAuthService(t)
	registerUser(t, svc, "cap@example.com")
	if err := svc.RequestOTP(context.Background(), "cap@example.com"); err != nil {
		t.Fatalf("request otp: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := svc.VerifyOTP(context.Background(), "cap@example.com", "000000"); !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
			t.Fatalf("attempt %d err = %v, want UNAUTHORIZED", i, err)
		}
	}

	// The stored code was discarded after the attempt cap, so even the
	// right code fails now.
	code := notifier.codes[0]
	if _, err := svc.VerifyOTP(context.Background(), "cap@example.com", code); !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("post-cap err = %v, want UNAUTHORIZED", err)
	}
	if _, ok := otp.values[otp.OTPKey("cap@example.com")]; ok {
		t.Fatal("otp should be purged after the attempt cap")
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newAuthService(t)
	registerUser(t, svc, "rot@example.com")
	pair, err := svc.Login(context.Background(), "rot@example.com", "correct horse battery 9")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	fresh, err := svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if fresh.AccessToken == pair.AccessToken {
		t.Fatal("access token should be reissued")
	}
	if fresh.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token should rotate")
	}

	// The old refresh token is dead after rotation.
	if _, err := svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken); !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("replay err = %v, want UNAUTHORIZED", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	t.Parallel()

	svc, _, sessions, _, _ := newAuthService(t)
	registerUser(t, svc, "bye@example.com")
	pair, err := svc.Login(context.Background(), "bye@example.com", "correct horse battery 9")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgauth.ParseAccessToken(testConfig().JWT, pair.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}

	if err := svc.Logout(context.Background(), claims.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := sessions.sessions[claims.ID]; ok {
		t.Fatal("session should be revoked")
	}
}
