package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/otp-file-gateway/internal/domain"
	"github.com/otp-file-gateway/internal/pkg/id"
	pkgotp "github.com/otp-file-gateway/internal/pkg/otp"
	pkgtoken "github.com/otp-file-gateway/internal/pkg/token"
)

const (
	DefaultOTPTTL   = 5 * time.Minute
	DefaultTokenTTL = 15 * time.Minute
)

type Service interface {
	Register(ctx context.Context, req domain.CredentialsRequest) (*domain.User, error)
	Login(ctx context.Context, req domain.CredentialsRequest) error
	VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (*domain.AccessToken, error)
	// Authenticate resolves a bearer token to its ledger entry. Unknown and
	// expired tokens are reported as ErrUnauthorized.
	Authenticate(ctx context.Context, token string) (*domain.AccessToken, error)
	ValidateToken(ctx context.Context, token string) bool
}

// CredentialStore owns user identities and passwords.
type CredentialStore interface {
	SignUp(ctx context.Context, email, password string) (*domain.User, error)
	SignIn(ctx context.Context, email, password string) (*domain.User, error)
	LookupByID(ctx context.Context, userID string) (*domain.User, error)
}

type OTPLedger interface {
	Put(ctx context.Context, rec *domain.OTPRecord) error
	FindLatest(ctx context.Context, email, otp string) (*domain.OTPRecord, error)
	MarkConsumed(ctx context.Context, email, otpID string, at time.Time) error
}

type TokenLedger interface {
	Put(ctx context.Context, t *domain.AccessToken) error
	Get(ctx context.Context, token string) (*domain.AccessToken, error)
}

type Notifier interface {
	SendOTP(ctx context.Context, email, otp string) error
}

type service struct {
	credentials   CredentialStore
	otps          OTPLedger
	tokens        TokenLedger
	notifier      Notifier
	otpTTL        time.Duration
	tokenTTL      time.Duration
	now           func() time.Time
	generateOTP   func() (string, error)
	generateToken func() (string, error)
}

// ServiceDeps holds the collaborators of the auth service. Zero TTLs, clock
// and generators fall back to the production defaults.
type ServiceDeps struct {
	Credentials   CredentialStore
	OTPs          OTPLedger
	Tokens        TokenLedger
	Notifier      Notifier
	OTPTTL        time.Duration
	TokenTTL      time.Duration
	Now           func() time.Time
	GenerateOTP   func() (string, error)
	GenerateToken func() (string, error)
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		credentials:   deps.Credentials,
		otps:          deps.OTPs,
		tokens:        deps.Tokens,
		notifier:      deps.Notifier,
		otpTTL:        deps.OTPTTL,
		tokenTTL:      deps.TokenTTL,
		now:           deps.Now,
		generateOTP:   deps.GenerateOTP,
		generateToken: deps.GenerateToken,
	}
	if s.otpTTL <= 0 {
		s.otpTTL = DefaultOTPTTL
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = DefaultTokenTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.generateOTP == nil {
		s.generateOTP = pkgotp.Generate
	}
	if s.generateToken == nil {
		s.generateToken = pkgtoken.NewAccessToken
	}
	return s
}

func (s *service) Register(ctx context.Context, req domain.CredentialsRequest) (*domain.User, error) {
	u, err := s.credentials.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if u.Email == "" {
		u.Email = req.Email
	}
	return u, nil
}

// Login verifies the password and issues a fresh OTP. The record is stored
// before the email goes out; if delivery fails the record is voided so the
// ledger never holds a code the user did not receive.
func (s *service) Login(ctx context.Context, req domain.CredentialsRequest) error {
	if _, err := s.credentials.SignIn(ctx, req.Email, req.Password); err != nil {
		return err
	}

	code, err := s.generateOTP()
	if err != nil {
		return err
	}
	now := s.now().UTC()
	rec := &domain.OTPRecord{
		OTPID:     id.NewAt(now),
		Email:     req.Email,
		OTP:       code,
		Status:    domain.OTPPending,
		ExpiresAt: now.Add(s.otpTTL),
		CreatedAt: now,
	}
	if err := s.otps.Put(ctx, rec); err != nil {
		return persistenceErr("store otp", err)
	}

	if err := s.notifier.SendOTP(ctx, req.Email, code); err != nil {
		if voidErr := s.otps.MarkConsumed(context.WithoutCancel(ctx), rec.Email, rec.OTPID, now); voidErr != nil {
			slog.Warn("failed to void undelivered OTP", "otp_id", rec.OTPID, "err", voidErr)
		}
		if !errors.Is(err, domain.ErrNotification) {
			err = fmt.Errorf("%w: %w", domain.ErrNotification, err)
		}
		return err
	}
	return nil
}

// VerifyOTP exchanges a pending, unexpired OTP for an access token. The most
// recent record matching email and otp is the one checked.
func (s *service) VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (*domain.AccessToken, error) {
	rec, err := s.otps.FindLatest(ctx, req.Email, req.OTP)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no matching OTP: %w", domain.ErrInvalidOTP)
		}
		return nil, persistenceErr("find otp", err)
	}

	now := s.now().UTC()
	switch rec.State(now) {
	case domain.OTPExpired:
		return nil, fmt.Errorf("OTP expired at %s: %w", rec.ExpiresAt.Format(time.RFC3339), domain.ErrOTPExpired)
	case domain.OTPConsumed:
		return nil, fmt.Errorf("OTP already used: %w", domain.ErrInvalidOTP)
	}

	if err := s.otps.MarkConsumed(ctx, rec.Email, rec.OTPID, now); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("OTP already used: %w", domain.ErrInvalidOTP)
		}
		return nil, persistenceErr("consume otp", err)
	}

	tok, err := s.generateToken()
	if err != nil {
		return nil, err
	}
	at := &domain.AccessToken{
		Token:     tok,
		Email:     rec.Email,
		ExpiresAt: now.Add(s.tokenTTL),
		CreatedAt: now,
	}
	if err := s.tokens.Put(ctx, at); err != nil {
		return nil, persistenceErr("store access token", err)
	}
	return at, nil
}

func (s *service) Authenticate(ctx context.Context, token string) (*domain.AccessToken, error) {
	if token == "" {
		return nil, fmt.Errorf("missing token: %w", domain.ErrUnauthorized)
	}
	at, err := s.tokens.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("unknown token: %w", domain.ErrUnauthorized)
		}
		return nil, persistenceErr("find access token", err)
	}
	if !at.Valid(s.now().UTC()) {
		return nil, fmt.Errorf("token expired: %w", domain.ErrUnauthorized)
	}
	return at, nil
}

func (s *service) ValidateToken(ctx context.Context, token string) bool {
	_, err := s.Authenticate(ctx, token)
	return err == nil
}

// persistenceErr makes sure ledger failures carry ErrPersistence.
func persistenceErr(op string, err error) error {
	if errors.Is(err, domain.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
}
