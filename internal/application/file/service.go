package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/otp-file-gateway/internal/domain"
	s3infra "github.com/otp-file-gateway/internal/infrastructure/s3"
)

const keyTimeLayout = "20060102150405"

type UploadInput struct {
	UserID      string
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type UploadResult struct {
	Path string `json:"path"`
}

type Listing struct {
	UserEmail string              `json:"user_email"`
	Files     []domain.StoredFile `json:"files"`
}

type Download struct {
	Filename string
	*s3infra.Object
}

// Service is the per-user file passthrough. ownerEmail is the email the
// caller's access token was issued to; it must match the user's email.
type Service interface {
	Upload(ctx context.Context, ownerEmail string, in UploadInput) (*UploadResult, error)
	List(ctx context.Context, ownerEmail, userID string) (*Listing, error)
	Download(ctx context.Context, ownerEmail, userID, filename string) (*Download, error)
}

type userLookup interface {
	LookupByID(ctx context.Context, userID string) (*domain.User, error)
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	List(ctx context.Context, prefix string) ([]domain.StoredFile, error)
	Download(ctx context.Context, key string) (*s3infra.Object, error)
}

type service struct {
	users   userLookup
	objects objectStore
	now     func() time.Time
}

type ServiceDeps struct {
	Users   userLookup
	Objects objectStore
	Now     func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{users: deps.Users, objects: deps.Objects, now: deps.Now}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) Upload(ctx context.Context, ownerEmail string, in UploadInput) (*UploadResult, error) {
	if in.Reader == nil || in.Filename == "" {
		return nil, fmt.Errorf("no file provided: %w", domain.ErrBadRequest)
	}
	u, err := s.owner(ctx, ownerEmail, in.UserID)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s/%s_%s", u.Email, s.now().UTC().Format(keyTimeLayout), sanitizeFilename(in.Filename))
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.objects.Upload(ctx, key, in.Reader, in.Size, contentType); err != nil {
		return nil, err
	}
	return &UploadResult{Path: key}, nil
}

func (s *service) List(ctx context.Context, ownerEmail, userID string) (*Listing, error) {
	u, err := s.owner(ctx, ownerEmail, userID)
	if err != nil {
		return nil, err
	}
	files, err := s.objects.List(ctx, u.Email+"/")
	if err != nil {
		return nil, err
	}
	return &Listing{UserEmail: u.Email, Files: files}, nil
}

func (s *service) Download(ctx context.Context, ownerEmail, userID, filename string) (*Download, error) {
	if filename == "" || strings.ContainsAny(filename, `/\`) || filename == "." || filename == ".." {
		return nil, fmt.Errorf("invalid filename: %w", domain.ErrBadRequest)
	}
	u, err := s.owner(ctx, ownerEmail, userID)
	if err != nil {
		return nil, err
	}
	obj, err := s.objects.Download(ctx, u.Email+"/"+filename)
	if err != nil {
		return nil, err
	}
	return &Download{Filename: filename, Object: obj}, nil
}

// owner resolves userID and checks it belongs to the token holder.
func (s *service) owner(ctx context.Context, ownerEmail, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id required: %w", domain.ErrBadRequest)
	}
	u, err := s.users.LookupByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("User not found: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	if u.Email != ownerEmail {
		return nil, fmt.Errorf("access denied: %w", domain.ErrForbidden)
	}
	return u, nil
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in S3 keys.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." && result != ".." {
		return result
	}
	return "_"
}
