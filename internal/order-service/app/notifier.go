package app

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/jcmexdev/order-management/internal/order-service/core/ports"
)

const DefaultSendTimeout = 10 * time.Second

var phonePattern = regexp.MustCompile(`^\+[0-9]{8,15}$`)

// NotificationGateway wraps an SMS provider with fire-and-forget semantics:
// nothing it does can fail the caller. Failures are logged at WARN and
// reported only through Notify's boolean result. It never retries.
type NotificationGateway struct {
	sender  ports.SMSSender
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewNotificationGateway(sender ports.SMSSender, timeout time.Duration) *NotificationGateway {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &NotificationGateway{sender: sender, timeout: timeout}
}

// Notify sends one message and reports whether the provider accepted it.
func (g *NotificationGateway) Notify(ctx context.Context, phoneNumber, message string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.WarnContext(ctx, "sms provider panicked", "phone_number", phoneNumber, "panic", fmt.Sprint(r))
			ok = false
		}
	}()

	if g == nil || g.sender == nil {
		slog.WarnContext(ctx, "sms not sent: no provider configured", "phone_number", phoneNumber)
		return false
	}
	if !phonePattern.MatchString(phoneNumber) {
		slog.WarnContext(ctx, "sms not sent: malformed phone number", "phone_number", phoneNumber)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.sender.Send(ctx, phoneNumber, message); err != nil {
		slog.WarnContext(ctx, "sms sending failed", "phone_number", phoneNumber, "error", err)
		return false
	}
	slog.InfoContext(ctx, "sms sent", "phone_number", phoneNumber)
	return true
}

// Dispatch runs Notify in the background. The send is detached from ctx's
// cancellation but keeps its values, so trace ids still reach the logs.
func (g *NotificationGateway) Dispatch(ctx context.Context, phoneNumber, message string) {
	if g == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.Notify(ctx, phoneNumber, message)
	}()
}

// Wait blocks until every dispatched notification has finished.
func (g *NotificationGateway) Wait() {
	if g == nil {
		return
	}
	g.wg.Wait()
}
