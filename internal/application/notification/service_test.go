package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/otp-file-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

func TestSendOTP_Message(t *testing.T) {
	m := &mockMailer{}
	m.On("SendEmail", "a@x.com", "Your login OTP", "Your Otp is 042137").Return(nil)

	require.NoError(t, NewSender(m).SendOTP(context.Background(), "a@x.com", "042137"))
	m.AssertExpectations(t)
}

func TestSendOTP_RelayFailure(t *testing.T) {
	relayErr := errors.New("connection refused")
	m := &mockMailer{}
	m.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(relayErr)

	err := NewSender(m).SendOTP(context.Background(), "a@x.com", "042137")
	assert.ErrorIs(t, err, domain.ErrNotification)
	assert.ErrorIs(t, err, relayErr)
}

func TestSendOTP_CancelledContext(t *testing.T) {
	m := &mockMailer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewSender(m).SendOTP(ctx, "a@x.com", "042137")
	assert.ErrorIs(t, err, domain.ErrNotification)
	m.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything)
}
