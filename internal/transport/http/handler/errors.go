package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/otp-file-gateway/internal/domain"
)

type errorMapping struct {
	sentinel error
	status   int
	// message replaces the error text when set.
	message string
}

// errorMappings is checked in order; the first sentinel found wins.
var errorMappings = []errorMapping{
	{domain.ErrCredentialRejected, http.StatusBadRequest, ""},
	{domain.ErrBadRequest, http.StatusBadRequest, ""},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{domain.ErrOTPExpired, http.StatusUnauthorized, "OTP expired"},
	{domain.ErrInvalidOTP, http.StatusUnauthorized, ""},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "invalid or expired token"},
	{domain.ErrForbidden, http.StatusForbidden, ""},
	{domain.ErrNotFound, http.StatusNotFound, ""},
	{domain.ErrNotification, http.StatusBadGateway, "Failed to send OTP"},
}

// writeServiceError maps a service error to its status code and writes it.
// Unmapped errors are logged and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.sentinel) {
			continue
		}
		if m.status >= http.StatusInternalServerError {
			slog.Error("upstream failure", "path", r.URL.Path, "err", err)
		}
		msg := m.message
		if msg == "" {
			msg = strings.TrimSuffix(err.Error(), ": "+m.sentinel.Error())
		}
		writeError(w, m.status, msg)
		return
	}
	slog.Error("request failed", "path", r.URL.Path, "err", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
