package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"legal_consult_service/internal/calendar/domain"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeAcknowledger 記錄 delivery 被 ack 還是 nack
type fakeAcknowledger struct {
	mu      sync.Mutex
	acked   int
	nacked  int
	requeue bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked++
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nacked++
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

func delivery(t *testing.T, ack amqp.Acknowledger, v interface{}) amqp.Delivery {
	t.Helper()
	body, ok := v.([]byte)
	if !ok {
		var err error
		body, err = json.Marshal(v)
		require.NoError(t, err)
	}
	return amqp.Delivery{Acknowledger: ack, Body: body}
}

func testConsumer(mail *MockMailer) *NotificationConsumer {
	c := NewNotificationConsumer(nil, mail, "", time.UTC)
	c.retryDelay = 0
	return c
}

func notification(kind domain.NotificationKind, emails ...string) domain.AppointmentNotification {
	return domain.AppointmentNotification{
		AppointmentID: "a1",
		ConsultantID:  "c1",
		ClientID:      "u1",
		StartTime:     time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		Duration:      time.Hour,
		Kind:          kind,
		Emails:        emails,
	}
}

func TestNotificationConsumer_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("mail sent then ack", func(t *testing.T) {
		mail := new(MockMailer)
		mail.On("Send", []string{"client@example.com"}, "Appointment confirmed", mock.MatchedBy(func(body string) bool {
			return strings.Contains(body, "2024-06-01 10:00") && strings.Contains(body, "a1")
		})).Return(nil)
		ack := &fakeAcknowledger{}

		testConsumer(mail).handle(ctx, delivery(t, ack, notification(domain.NotifyScheduled, "client@example.com")))
		assert.Equal(t, 1, ack.acked)
		assert.Equal(t, 0, ack.nacked)
		mail.AssertExpectations(t)
	})

	t.Run("cancel uses cancel subject", func(t *testing.T) {
		mail := new(MockMailer)
		mail.On("Send", mock.Anything, "Appointment cancelled", mock.Anything).Return(nil)
		ack := &fakeAcknowledger{}

		testConsumer(mail).handle(ctx, delivery(t, ack, notification(domain.NotifyCancelled, "client@example.com")))
		assert.Equal(t, 1, ack.acked)
		mail.AssertExpectations(t)
	})

	t.Run("mail failure requeues", func(t *testing.T) {
		mail := new(MockMailer)
		mail.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp: 421"))
		ack := &fakeAcknowledger{}

		testConsumer(mail).handle(ctx, delivery(t, ack, notification(domain.NotifyScheduled, "client@example.com")))
		assert.Equal(t, 0, ack.acked)
		assert.Equal(t, 1, ack.nacked)
		assert.True(t, ack.requeue)
	})

	t.Run("malformed body is dropped", func(t *testing.T) {
		mail := new(MockMailer)
		ack := &fakeAcknowledger{}

		testConsumer(mail).handle(ctx, delivery(t, ack, []byte("{not json")))
		assert.Equal(t, 1, ack.nacked)
		assert.False(t, ack.requeue)
		mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no recipients is acked without mail", func(t *testing.T) {
		mail := new(MockMailer)
		ack := &fakeAcknowledger{}

		testConsumer(mail).handle(ctx, delivery(t, ack, notification(domain.NotifyScheduled)))
		assert.Equal(t, 1, ack.acked)
		mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestNotificationConsumer_ConsumeStops(t *testing.T) {
	mail := new(MockMailer)
	mail.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	c := testConsumer(mail)
	ack := &fakeAcknowledger{}

	msgs := make(chan amqp.Delivery, 2)
	msgs <- delivery(t, ack, notification(domain.NotifyScheduled, "a@example.com"))
	msgs <- delivery(t, ack, notification(domain.NotifyCancelled, "a@example.com"))
	close(msgs)

	done := make(chan struct{})
	go func() {
		c.consume(context.Background(), msgs)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("consumer did not stop when channel closed")
	}
	assert.Equal(t, 2, ack.acked)
}
