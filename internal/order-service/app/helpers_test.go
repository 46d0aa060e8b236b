package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jcmexdev/order-management/internal/order-service/adapters/sqlstore"
	"github.com/jcmexdev/order-management/internal/order-service/core/domain"
)

type sentSMS struct {
	phone   string
	message string
}

// recordingSender is an SMS provider that remembers what it was asked to
// send. fn, when set, decides the outcome of each send.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentSMS
	fn   func(phone, message string) error
}

func (s *recordingSender) Send(_ context.Context, phone, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentSMS{phone, message})
	if s.fn != nil {
		return s.fn(phone, message)
	}
	return nil
}

func (s *recordingSender) messages() []sentSMS {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentSMS(nil), s.sent...)
}

type publishedEvent struct {
	topic string
	key   string
	event LifecycleEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	ev, ok := event.(LifecycleEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	p.events = append(p.events, publishedEvent{topic, key, ev})
	return nil
}

func (p *recordingPublisher) published() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

type fixture struct {
	store     *sqlstore.Store
	ledger    *Ledger
	audit     *AuditLog
	registry  *Registry
	engine    *Engine
	sender    *recordingSender
	publisher *recordingPublisher
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{
		store:     store,
		ledger:    NewLedger(store),
		audit:     NewAuditLog(store),
		registry:  NewRegistry(store, bcrypt.MinCost),
		sender:    &recordingSender{},
		publisher: &recordingPublisher{},
	}
	gateway := NewNotificationGateway(f.sender, time.Second)
	opts = append([]Option{WithPublisher(f.publisher)}, opts...)
	f.engine = NewEngine(store, f.ledger, f.audit, gateway, opts...)
	t.Cleanup(f.engine.Wait)
	return f
}

func (f *fixture) customer(t *testing.T, code, phone string) *domain.Customer {
	t.Helper()
	c, err := f.registry.Register(context.Background(), domain.Registration{
		Code: code, Password: "secret", Name: code, PhoneNumber: phone,
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) item(t *testing.T, name string, onHand, warn int) *domain.InventoryItem {
	t.Helper()
	item, err := f.ledger.CreateItem(context.Background(), domain.CreateInventoryItem{
		Name: name, OnHand: onHand, WarnLimit: &warn,
	})
	require.NoError(t, err)
	return item
}

func (f *fixture) onHand(t *testing.T, id string) int {
	t.Helper()
	item, err := f.ledger.GetItem(context.Background(), id)
	require.NoError(t, err)
	return item.OnHand
}

func (f *fixture) actions(t *testing.T, orderID string) []domain.Action {
	t.Helper()
	trail, err := f.audit.ListByOrder(context.Background(), orderID)
	require.NoError(t, err)
	out := make([]domain.Action, len(trail))
	for i, e := range trail {
		out[i] = e.Action
	}
	return out
}
