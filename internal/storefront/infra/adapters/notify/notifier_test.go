package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront-preorders/internal/coordinator"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/domain/entity"
)

type fakeEmail struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeEmail) Send(_ context.Context, to, subject, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to+"|"+subject)
	return nil
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeSMS) Send(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to+"|"+body)
	return nil
}

func testOrder() entity.Order {
	return entity.Order{
		ID:           "ORD-01JTEST",
		CustomerName: "Carla",
		Email:        "carla@example.com",
		Phone:        "+639179999999",
		Items: []entity.CartItem{
			{ID: "p1", Name: "Classic Coffee (12oz)", UnitPrice: decimal.NewFromInt(120), Quantity: 1},
			{ID: "p2", Name: "Hazelnut Latte", UnitPrice: decimal.NewFromInt(150), Quantity: 2},
		},
		Subtotal: decimal.RequireFromString("420"),
		Tax:      decimal.RequireFromString("50.4"),
		Total:    decimal.RequireFromString("470.4"),
	}
}

type capturedFailures struct {
	mu   sync.Mutex
	errs []error
}

func (c *capturedFailures) sink(_ context.Context, _ coordinator.Task, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

func newDispatcher(c *capturedFailures) *coordinator.Dispatcher {
	return coordinator.NewDispatcher(coordinator.WithErrorSink(c.sink))
}

func TestNotifySendsBothChannels(t *testing.T) {
	email, sms := &fakeEmail{}, &fakeSMS{}
	var failures capturedFailures
	d := newDispatcher(&failures)
	n := New(email, sms, d)

	n.Notify(context.Background(), testOrder())
	require.NoError(t, d.Wait(context.Background()))

	assert.Equal(t, []string{"carla@example.com|Pre-order confirmation (ORD-01JTEST)"}, email.sent)
	assert.Equal(t, []string{"+639179999999|Pre-order confirmed (ORD-01JTEST) for Carla. Total: 470.40. Thank you!"}, sms.sent)
	assert.Empty(t, failures.errs)
}

func TestNotifySkipsMissingContactAndUnconfiguredChannels(t *testing.T) {
	email := &fakeEmail{}
	var failures capturedFailures
	d := newDispatcher(&failures)

	order := testOrder()
	order.Email = ""
	New(email, nil, d).Notify(context.Background(), order)
	New(nil, nil, d).Notify(context.Background(), testOrder())
	require.NoError(t, d.Wait(context.Background()))

	assert.Empty(t, email.sent)
	assert.Empty(t, failures.errs)
}

func TestChannelFailureIsIsolated(t *testing.T) {
	email := &fakeEmail{err: errors.New("421 service not available")}
	sms := &fakeSMS{}
	var failures capturedFailures
	d := newDispatcher(&failures)

	New(email, sms, d).Notify(context.Background(), testOrder())
	require.NoError(t, d.Wait(context.Background()))

	require.Len(t, sms.sent, 1)
	require.Len(t, failures.errs, 1)
	var nerr *entity.NotificationError
	require.ErrorAs(t, failures.errs[0], &nerr)
	assert.Equal(t, ChannelEmail, nerr.Channel)
	assert.Equal(t, "ORD-01JTEST", nerr.OrderID)
}

func TestEmailBody(t *testing.T) {
	body := EmailBody(testOrder())

	assert.True(t, strings.HasPrefix(body, "Thank you Carla!\n\nOrder ID: ORD-01JTEST\n"))
	assert.Contains(t, body, `"name": "Hazelnut Latte"`)
	assert.Contains(t, body, `"price": 150`)
	assert.Contains(t, body, "Subtotal: 420.00\nTax: 50.40\nTotal: 470.40\n")
	assert.True(t, strings.HasSuffix(body, "We will contact you when order is ready."))
}

func TestLogFailureAcceptsAnyError(t *testing.T) {
	task := coordinator.TaskFunc{TaskName: "notify_email"}
	LogFailure(context.Background(), task, &entity.NotificationError{Channel: ChannelEmail, OrderID: "ORD-1", Err: errors.New("x")})
	LogFailure(context.Background(), task, errors.New("plain"))
}

func TestSendGridClientRejectsMissingConfig(t *testing.T) {
	err := NewSendGridClient("", "shop@example.com", "Shop").Send(context.Background(), "a@example.com", "s", "b")
	require.Error(t, err)
	err = NewSendGridClient("key", "", "Shop").Send(context.Background(), "a@example.com", "s", "b")
	require.Error(t, err)
	err = NewSendGridClient("key", "shop@example.com", "Shop").Send(context.Background(), "", "s", "b")
	require.Error(t, err)
}

func TestTwilioClientRejectsEmptyRecipient(t *testing.T) {
	err := NewTwilioClient("AC123", "token", "+15550000000").Send(context.Background(), "", "hi")
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = NewTwilioClient("AC123", "token", "+15550000000").Send(ctx, "+15551111111", "hi")
	require.ErrorIs(t, err, context.Canceled)
}
