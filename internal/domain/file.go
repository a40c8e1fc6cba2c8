package domain

import "time"

// StoredFile describes one object in a user's storage folder.
// Upload keys are timestamped and never overwritten, so CreatedAt and
// UpdatedAt both come from the object's last-modified time.
type StoredFile struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	ETag        string    `json:"etag,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
