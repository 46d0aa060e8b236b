package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/order-management/internal/order-service/core/domain"
	"github.com/jcmexdev/order-management/internal/order-service/core/ports"
)

// AuditLog appends immutable entries to an order's audit trail. Record runs
// on the repository it is given so that entries commit or roll back with the
// order write that caused them.
type AuditLog struct {
	store ports.Store
	now   func() time.Time
}

func NewAuditLog(store ports.Store) *AuditLog {
	return &AuditLog{store: store, now: time.Now}
}

// TraceInfo holds the OTel identifiers extracted from a context.
type TraceInfo struct {
	TraceID string
	SpanID  string
}

// ExtractTraceInfo reads the active span from ctx. Both fields are empty if
// the context carries no valid span.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}
	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// Record appends ev for the order. customerID may be empty.
func (a *AuditLog) Record(
	ctx context.Context,
	repo ports.TransactionRepository,
	orderID string,
	customerID string,
	ev domain.AuditEvent,
) (*domain.Transaction, error) {
	if !ev.Action.Valid() {
		return nil, domain.Invalid("action", "unknown audit action %q", ev.Action)
	}

	ti := ExtractTraceInfo(ctx)
	entry := &domain.Transaction{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		CustomerID:  customerID,
		Action:      ev.Action,
		Change:      ev.Change,
		Description: ev.Description(),
		TraceID:     ti.TraceID,
		SpanID:      ti.SpanID,
		Timestamp:   a.now().UTC(),
	}
	if err := repo.Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ListByOrder returns the trail of an existing order, oldest first.
func (a *AuditLog) ListByOrder(ctx context.Context, orderID string) ([]domain.Transaction, error) {
	if _, err := a.store.Orders().Get(ctx, orderID); err != nil {
		return nil, err
	}
	return a.store.Transactions().ListByOrder(ctx, orderID)
}
