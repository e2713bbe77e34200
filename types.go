package dealer

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds dealer auth options
type Config interface {
	GetBaseURL() string
	GetSessionCookieName() string
	GetAdminSigningKey() string
	GetAdminIssuer() string
}

// Notifier delivers onboarding notifications to dealers. Implementations are
// called fire-and-forget after the transaction commits; their errors never
// change lifecycle outcomes.
type Notifier interface {
	DealerVerified(ctx context.Context, d *Dealer, setupLink string) error
	DealerApproved(ctx context.Context, d *Dealer) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] DEALER "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] DEALER "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] DEALER "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] DEALER "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
