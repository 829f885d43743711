// Package mailer sends transactional email.
package mailer

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"sync"
)

type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers one message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ResetPasswordMessage builds the password reset email for link.
func ResetPasswordMessage(to, link string) Message {
	escaped := html.EscapeString(link)
	return Message{
		To:      to,
		Subject: "Reset your Goodie password",
		HTML: fmt.Sprintf(`<p>We received a request to reset your password.</p>`+
			`<p><a href="%s">Reset password</a></p>`+
			`<p>This link expires in one hour. If you did not ask for it, ignore this email.</p>`, escaped),
		Text: "We received a request to reset your password.\n\n" +
			"Reset it here: " + link + "\n\n" +
			"This link expires in one hour. If you did not ask for it, ignore this email.\n",
	}
}

// LogSender writes messages to the log instead of sending them. Used when no
// email provider is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	slog.Info("email not sent, no provider configured", "to", msg.To, "subject", msg.Subject)
	return nil
}

// Outbox records messages in memory.
type Outbox struct {
	mu       sync.Mutex
	messages []Message
	// Err, when set, is returned by Send after the message is recorded.
	Err error
}

func (o *Outbox) Send(_ context.Context, msg Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, msg)
	return o.Err
}

func (o *Outbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Message, len(o.messages))
	copy(out, o.messages)
	return out
}

func (o *Outbox) Last() (Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.messages) == 0 {
		return Message{}, false
	}
	return o.messages[len(o.messages)-1], true
}
