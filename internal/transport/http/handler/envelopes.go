package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/otp-file-gateway/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RegisterEnvelope wraps the registration response.
type RegisterEnvelope struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// TokenEnvelope wraps the OTP verification response.
type TokenEnvelope struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type UploadEnvelope struct {
	Message string `json:"message"`
	Path    string `json:"path"`
}

type FilesEnvelope struct {
	Message   string              `json:"message"`
	Files     []domain.StoredFile `json:"files"`
	UserEmail string              `json:"user_email"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
