package http

import (
	"context"
	"io"
	"time"

	"github.com/otp-file-gateway/internal/application/auth"
	"github.com/otp-file-gateway/internal/domain"
	s3infra "github.com/otp-file-gateway/internal/infrastructure/s3"
)

// ObjectStore is the minimal interface the router requires from an object storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	List(ctx context.Context, prefix string) ([]domain.StoredFile, error)
	Download(ctx context.Context, key string) (*s3infra.Object, error)
}

// Deps holds all infrastructure dependencies for the router. The ledgers and
// the credential store are chosen at startup by AUTH_PROVIDER and
// LEDGER_BACKEND.
type Deps struct {
	Credentials auth.CredentialStore
	OTPs        auth.OTPLedger
	Tokens      auth.TokenLedger
	Notifier    auth.Notifier
	Objects     ObjectStore
	// Now overrides the clock in tests.
	Now func() time.Time
}
