// Package notify delivers onboarding notifications to dealers over SMS and
// email. Everything here is fire-and-forget from the caller's point of view;
// delivery failures are returned for logging but never block onboarding.
package notify

import (
	"context"
	"fmt"

	"github.com/justcars/go-dealer-auth"
)

// Sender delivers a single message to a destination.
type Sender interface {
	Send(ctx context.Context, to, message string) error
}

// Notifications implements dealer.Notifier by fanning out to the configured
// senders. A nil sender is skipped.
type Notifications struct {
	sms    Sender
	email  Sender
	logger dealer.Logger
}

var _ dealer.Notifier = (*Notifications)(nil)

type Option func(*Notifications)

func WithSMS(s Sender) Option {
	return func(n *Notifications) { n.sms = s }
}

func WithEmail(s Sender) Option {
	return func(n *Notifications) { n.email = s }
}

func WithLogger(l dealer.Logger) Option {
	return func(n *Notifications) {
		if l != nil {
			n.logger = l
		}
	}
}

func New(opts ...Option) *Notifications {
	n := &Notifications{logger: logSender{}.logger()}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// DealerVerified tells the dealer their account passed review and where to
// set their password.
func (n *Notifications) DealerVerified(ctx context.Context, d *dealer.Dealer, setupLink string) error {
	msg := fmt.Sprintf(
		"Hello %s, your dealer account has been verified. Set your password here: %s (link expires in 7 days)",
		d.BusinessName, setupLink,
	)
	return n.deliver(ctx, d, msg)
}

// DealerApproved tells the dealer their account is live.
func (n *Notifications) DealerApproved(ctx context.Context, d *dealer.Dealer) error {
	msg := fmt.Sprintf(
		"Hello %s, your dealer account has been approved. You can now log in and start listing.",
		d.BusinessName,
	)
	return n.deliver(ctx, d, msg)
}

func (n *Notifications) deliver(ctx context.Context, d *dealer.Dealer, msg string) error {
	var firstErr error

	if n.sms != nil && d.Phone != "" {
		if err := n.sms.Send(ctx, d.Phone, msg); err != nil {
			n.logger.Warn("sms notification to %s failed: %v", d.Phone, err)
			firstErr = err
		}
	}

	if n.email != nil && d.Email != "" {
		if err := n.email.Send(ctx, d.Email, msg); err != nil {
			n.logger.Warn("email notification to %s failed: %v", d.Email, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// logSender prints the message instead of delivering it; useful in
// development when no provider credentials are configured.
type logSender struct {
	log dealer.Logger
}

// NewLogSender returns a Sender that only logs.
func NewLogSender(l dealer.Logger) Sender {
	return logSender{log: l}
}

func (s logSender) logger() dealer.Logger {
	if s.log != nil {
		return s.log
	}
	return defaultLogger{}
}

func (s logSender) Send(_ context.Context, to, message string) error {
	s.logger().Info("notification to %s: %s", to, message)
	return nil
}

type defaultLogger struct{}

func (defaultLogger) Debug(format string, args ...any) { fmt.Printf("[DBG] NOTIFY "+format+"\n", args...) }
func (defaultLogger) Info(format string, args ...any)  { fmt.Printf("[INF] NOTIFY "+format+"\n", args...) }
func (defaultLogger) Warn(format string, args ...any)  { fmt.Printf("[WRN] NOTIFY "+format+"\n", args...) }
func (defaultLogger) Error(format string, args ...any) { fmt.Printf("[ERR] NOTIFY "+format+"\n", args...) }
