package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/studyhub-api/internal/domain"
	"github.com/studyhub-api/internal/infrastructure/smtp"
	"github.com/studyhub-api/internal/infrastructure/sns"
	"github.com/studyhub-api/internal/pkg/retry"
)

const (
	mailAttempts  = 3
	mailBaseDelay = 500 * time.Millisecond
)

// OTPSender delivers one-time passcodes to a registrant.
type OTPSender interface {
	SendOTP(ctx context.Context, email, phone, code string) error
}

// Dispatcher sends OTPs by email, with SMS as a best-effort secondary channel
// when the registrant supplied a phone number. Construct once at startup and
// inject; never rebuild per request.
type Dispatcher struct {
	mailer smtp.Mailer
	sms    sns.SMSSender // nil when SNS is not configured
}

func NewDispatcher(mailer smtp.Mailer, sms sns.SMSSender) *Dispatcher {
	return &Dispatcher{mailer: mailer, sms: sms}
}

// SendOTP emails the code, retrying transient failures with backoff. An email
// failure is returned to the caller: the persisted OTP stays valid and the
// resend endpoint is the recovery path. SMS delivery failures are only logged.
func (d *Dispatcher) SendOTP(ctx context.Context, email, phone, code string) error {
	subject := "Your OTP for StudyHub Registration"
	body := fmt.Sprintf("Your OTP is %s. It is valid for 10 minutes.", code)

	err := retry.Do(ctx, mailAttempts, mailBaseDelay, func() error {
		return d.mailer.SendEmail(email, subject, body)
	})
	if err != nil {
		return fmt.Errorf("send otp email: %v: %w", err, domain.ErrDependency)
	}

	if phone != "" && d.sms != nil {
		if err := d.sms.SendSMS(ctx, phone, body); err != nil {
			slog.Warn("otp sms delivery failed", "err", err)
		}
	}
	return nil
}
