package notification

import (
	"context"
	"fmt"

	"github.com/otp-file-gateway/internal/domain"
)

const (
	otpSubject  = "Your login OTP"
	otpTemplate = "Your Otp is %s"
)

type mailer interface {
	SendEmail(to, subject, body string) error
}

// Sender delivers one-time passcodes by email.
type Sender struct {
	mailer mailer
}

func NewSender(m mailer) *Sender {
	return &Sender{mailer: m}
}

// SendOTP sends otp to email. Any relay failure is reported as ErrNotification.
func (s *Sender) SendOTP(ctx context.Context, email, otp string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotification, err)
	}
	if err := s.mailer.SendEmail(email, otpSubject, fmt.Sprintf(otpTemplate, otp)); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotification, err)
	}
	return nil
}
