package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-fin/meridian/internal/rbac"
	"github.com/meridian-fin/meridian/internal/shared"
)

var (
	ErrOTPCooldown    = errors.New("please wait before requesting another OTP")
	ErrOTPInvalid     = errors.New("invalid or expired OTP")
	ErrOTPMaxAttempts = errors.New("maximum OTP attempts exceeded")
	ErrRefreshInvalid = errors.New("invalid or expired refresh token")
	ErrPhoneTaken     = errors.New("phone number already registered")
	ErrNotVerified    = errors.New("account pending OTP verification")
	ErrInactive       = errors.New("account is not active")
)

// GrantSource resolves the role codes and the flattened permission union for
// a user. It also seeds the initial system roles on activation.
type GrantSource interface {
	RoleCodes(ctx context.Context, userID uuid.UUID) ([]string, error)
	EffectivePermissions(ctx context.Context, userID uuid.UUID) ([]string, error)
	AssignSystemRole(ctx context.Context, userID uuid.UUID, roleCode string) error
}

// OTPDispatcher hands a generated passcode to the delivery pipeline.
type OTPDispatcher interface {
	DispatchOTP(ctx context.Context, phone, code string) error
}

// Config carries the tunables of the auth service.
type Config struct {
	OTPExpiry      time.Duration
	OTPCooldown    time.Duration
	OTPMaxAttempts int
	RefreshExpiry  time.Duration
}

// Service handles phone/password and OTP authentication with rotating
// refresh tokens.
type Service struct {
	repo       Repository
	grants     GrantSource
	store      *otpStore
	jwt        *JWTService
	dispatcher OTPDispatcher
	logger     *slog.Logger
	cfg        Config
}

// NewService constructs the auth service.
func NewService(repo Repository, grants GrantSource, redisClient *redis.Client, jwtSvc *JWTService, dispatcher OTPDispatcher, logger *slog.Logger, cfg Config) *Service {
	return &Service{
		repo:       repo,
		grants:     grants,
		store:      newOTPStore(redisClient),
		jwt:        jwtSvc,
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// Register creates a PENDING account and dispatches an OTP to the phone.
func (s *Service) Register(ctx context.Context, phone, password string) error {
	if existing, err := s.repo.FindByPhone(ctx, phone); err == nil && existing != nil {
		if existing.Status != StatusPending {
			return ErrPhoneTaken
		}
		// Pending re-registration resends the OTP.
		return s.RequestOTP(ctx, phone)
	} else if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	user := &User{
		ID:           uuid.New(),
		Phone:        phone,
		PasswordHash: string(hash),
		Status:       StatusPending,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	return s.RequestOTP(ctx, phone)
}

// RequestOTP generates a 6-digit code, stores its hash and dispatches it.
func (s *Service) RequestOTP(ctx context.Context, phone string) error {
	on, err := s.store.isOnCooldown(ctx, phone)
	if err != nil {
		return fmt.Errorf("checking OTP cooldown: %w", err)
	}
	if on {
		return ErrOTPCooldown
	}
	code, err := generateOTPCode()
	if err != nil {
		return fmt.Errorf("generating OTP: %w", err)
	}
	if err := s.store.storeOTPHash(ctx, phone, hashString(code), s.cfg.OTPExpiry); err != nil {
		return fmt.Errorf("storing OTP: %w", err)
	}
	if err := s.store.setCooldown(ctx, phone, s.cfg.OTPCooldown); err != nil {
		return fmt.Errorf("setting OTP cooldown: %w", err)
	}
	if err := s.dispatcher.DispatchOTP(ctx, phone, code); err != nil {
		return fmt.Errorf("dispatching OTP: %w", err)
	}
	return nil
}

// VerifyOTP checks the code, activates the account, grants the initial
// system roles and returns a token bundle.
func (s *Service) VerifyOTP(ctx context.Context, phone, code string) (*TokenBundle, error) {
	storedHash, err := s.store.getOTPHash(ctx, phone)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrOTPInvalid
		}
		return nil, fmt.Errorf("retrieving OTP hash: %w", err)
	}

	attempts, err := s.store.incrOTPAttempts(ctx, phone, s.cfg.OTPExpiry)
	if err != nil {
		return nil, fmt.Errorf("incrementing OTP attempts: %w", err)
	}
	if attempts > int64(s.cfg.OTPMaxAttempts) {
		_ = s.store.deleteOTP(ctx, phone)
		return nil, ErrOTPMaxAttempts
	}
	if hashString(code) != storedHash {
		if attempts >= int64(s.cfg.OTPMaxAttempts) {
			_ = s.store.deleteOTP(ctx, phone)
			return nil, ErrOTPMaxAttempts
		}
		return nil, ErrOTPInvalid
	}
	if err := s.store.deleteOTP(ctx, phone); err != nil {
		return nil, fmt.Errorf("deleting OTP: %w", err)
	}

	user, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if user.Status == StatusPending {
		if err := s.repo.Activate(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("activating user: %w", err)
		}
		user.Status = StatusActive
		user.PhoneVerified = true
		for _, role := range []string{rbac.RoleUser, rbac.RoleCustomer} {
			if err := s.grants.AssignSystemRole(ctx, user.ID, role); err != nil {
				return nil, fmt.Errorf("granting %s: %w", role, err)
			}
		}
	}
	return s.issueBundle(ctx, user)
}

// Login validates phone/password credentials for an active account.
func (s *Service) Login(ctx context.Context, phone, password string) (*TokenBundle, error) {
	user, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	switch user.Status {
	case StatusActive:
	case StatusPending:
		return nil, ErrNotVerified
	default:
		return nil, ErrInactive
	}
	return s.issueBundle(ctx, user)
}

// Refresh rotates the refresh token and returns a new bundle.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenBundle, error) {
	hash := hashString(refreshToken)
	userIDStr, err := s.store.getRefreshToken(ctx, hash)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRefreshInvalid
		}
		return nil, fmt.Errorf("retrieving refresh token: %w", err)
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user id in refresh token: %w", err)
	}
	if err := s.store.deleteRefreshToken(ctx, hash); err != nil {
		return nil, fmt.Errorf("deleting refresh token: %w", err)
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrRefreshInvalid
	}
	bundle, err := s.issueBundle(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("refresh token rotated", slog.String("user_id", userID.String()))
	return bundle, nil
}

// Logout revokes the refresh token. Safe to call with an unknown token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	hash := hashString(refreshToken)
	userIDStr, err := s.store.getRefreshToken(ctx, hash)
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("looking up refresh token: %w", err)
	}
	if err := s.store.deleteRefreshToken(ctx, hash); err != nil {
		return fmt.Errorf("deleting refresh token: %w", err)
	}
	if userIDStr != "" {
		s.logger.Info("user logged out", slog.String("user_id", userIDStr))
	}
	return nil
}

// CurrentUser assembles the canonical record for /auth/me.
func (s *Service) CurrentUser(ctx context.Context, userID uuid.UUID) (*CurrentUser, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.buildCurrentUser(ctx, user)
}

func (s *Service) issueBundle(ctx context.Context, user *User) (*TokenBundle, error) {
	current, err := s.buildCurrentUser(ctx, user)
	if err != nil {
		return nil, err
	}
	accessToken, err := s.jwt.GenerateToken(ctx, user.ID, user.Phone)
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}
	rawRefresh, err := generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generating refresh token: %w", err)
	}
	if err := s.store.storeRefreshToken(ctx, hashString(rawRefresh), user.ID.String(), s.cfg.RefreshExpiry); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}
	return &TokenBundle{AccessToken: accessToken, RefreshToken: rawRefresh, User: *current}, nil
}

func (s *Service) buildCurrentUser(ctx context.Context, user *User) (*CurrentUser, error) {
	roles, err := s.grants.RoleCodes(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("loading roles: %w", err)
	}
	perms, err := s.grants.EffectivePermissions(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("loading permissions: %w", err)
	}
	customer, err := s.repo.CustomerInfo(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	collaborator, err := s.repo.CollaboratorInfo(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &CurrentUser{
		ID:            user.ID.String(),
		Phone:         user.Phone,
		Status:        user.Status,
		PhoneVerified: user.PhoneVerified,
		CreatedAt:     user.CreatedAt,
		Roles:         roles,
		Permissions:   perms,
		Customer:      customer,
		Collaborator:  collaborator,
	}, nil
}

// generateOTPCode returns a random 6-digit string.
func generateOTPCode() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// generateRefreshToken returns 32 random bytes as a hex string.
func generateRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
