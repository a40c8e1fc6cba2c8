package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/otp-file-gateway/internal/domain"
	"github.com/otp-file-gateway/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt input limit
)

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// unknownEmailHash is compared against when the email is unknown so both
// failure paths cost one bcrypt comparison.
func unknownEmailHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	return dummyHash
}

type userStore interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// CredentialStore is the self-hosted credential store: bcrypt hashes in the
// users table. It is selected with AUTH_PROVIDER=local.
type CredentialStore struct {
	users userStore
	now   func() time.Time
}

func NewCredentialStore(users userStore) *CredentialStore {
	return &CredentialStore{users: users, now: time.Now}
}

func (s *CredentialStore) SignUp(ctx context.Context, email, password string) (*domain.User, error) {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return nil, fmt.Errorf("password must be %d-%d characters: %w", minPasswordLen, maxPasswordLen, domain.ErrCredentialRejected)
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrCredentialRejected)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{
		UserID:       id.New(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Put(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("email already registered: %w", domain.ErrCredentialRejected)
		}
		return nil, err
	}
	return u, nil
}

func (s *CredentialStore) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(unknownEmailHash(), []byte(password))
		return nil, fmt.Errorf("unknown email: %w", domain.ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("password mismatch: %w", domain.ErrInvalidCredentials)
	}
	return u, nil
}

func (s *CredentialStore) LookupByID(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.Get(ctx, userID)
}
