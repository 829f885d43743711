package mailer

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"golang.org/x/time/rate"
)

// resendRate is the default Resend API limit (requests per second).
const resendRate = 2

type emailAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender delivers mail through the Resend API, paced so bursts of
// reset requests queue instead of hitting the provider's rate limit.
type ResendSender struct {
	emails  emailAPI
	from    string
	limiter *rate.Limiter
}

func NewResendSender(apiKey, from string) *ResendSender {
	client := resend.NewClient(apiKey)
	return newResendSender(client.Emails, from, rate.NewLimiter(rate.Limit(resendRate), 1))
}

func newResendSender(emails emailAPI, from string, limiter *rate.Limiter) *ResendSender {
	return &ResendSender{emails: emails, from: from, limiter: limiter}
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("email send cancelled: %w", err)
	}

	resp, err := s.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp == nil || resp.Id == "" {
		return fmt.Errorf("failed to send email: empty response")
	}
	return nil
}
