package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"legal_consult_service/internal/calendar/domain"
	"legal_consult_service/pkg/database"
	"legal_consult_service/pkg/logger"
	"legal_consult_service/pkg/mailer"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

var notificationTmpl = template.Must(template.New("notification").Parse(`<p>{{.Headline}}</p>
<ul>
<li>Appointment: {{.AppointmentID}}</li>
<li>Start: {{.Start}}</li>
<li>Duration: {{.Duration}}</li>
</ul>`))

// NotificationConsumer 消費預約通知並寄信給雙方
type NotificationConsumer struct {
	rabbit     database.RabbitRepo
	mail       mailer.Mailer
	queueName  string
	location   *time.Location
	retryDelay time.Duration
}

// NewNotificationConsumer 建構 NotificationConsumer 實例
func NewNotificationConsumer(rabbit database.RabbitRepo, mail mailer.Mailer, queueName string, location *time.Location) *NotificationConsumer {
	if queueName == "" {
		queueName = domain.NotificationQueue
	}
	if location == nil {
		location = time.UTC
	}
	return &NotificationConsumer{
		rabbit:     rabbit,
		mail:       mail,
		queueName:  queueName,
		location:   location,
		retryDelay: 10 * time.Second,
	}
}

// StartConsumer 開始消費訊息，直到 ctx 結束或 channel 關閉
func (c *NotificationConsumer) StartConsumer(ctx context.Context) error {
	msgs, err := c.rabbit.GetRabbit().Consume(
		c.queueName, // queue
		"",          // consumer tag，留空由系統分配
		false,       // autoAck 為 false，使用手動確認
		false,       // exclusive
		false,       // noLocal
		false,       // noWait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queueName, err)
	}

	logger.Log.Info("notification consumer started", zap.String("queue", c.queueName))
	c.consume(ctx, msgs)
	return nil
}

func (c *NotificationConsumer) consume(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				logger.Log.Warn("notification channel closed", zap.String("queue", c.queueName))
				return
			}
			c.handle(ctx, d)
		case <-ctx.Done():
			logger.Log.Info("notification consumer stopped")
			return
		}
	}
}

func (c *NotificationConsumer) handle(ctx context.Context, d amqp.Delivery) {
	var n domain.AppointmentNotification
	if err := json.Unmarshal(d.Body, &n); err != nil {
		// 格式錯誤重送也不會成功，直接丟掉
		logger.Log.Errorf("decode appointment notification:", err)
		if err := d.Nack(false, false); err != nil {
			logger.Log.Errorf("Nack 訊息失敗:", err)
		}
		return
	}

	if len(n.Emails) == 0 {
		logger.Log.Debug("notification without recipients", zap.String("appointmentID", n.AppointmentID))
		c.ack(d)
		return
	}

	subject, body, err := c.render(n)
	if err != nil {
		logger.Log.Errorf("render notification:", err)
		if err := d.Nack(false, false); err != nil {
			logger.Log.Errorf("Nack 訊息失敗:", err)
		}
		return
	}

	if err := c.mail.Send(n.Emails, subject, body); err != nil {
		logger.Log.Error("send appointment mail", zap.String("appointmentID", n.AppointmentID), zap.Error(err))
		// 寄信失敗稍等後重新排入佇列
		select {
		case <-time.After(c.retryDelay):
		case <-ctx.Done():
		}
		if err := d.Nack(false, true); err != nil {
			logger.Log.Errorf("Nack 訊息失敗:", err)
		}
		return
	}

	c.ack(d)
	logger.Log.Info("appointment mail sent", zap.String("appointmentID", n.AppointmentID), zap.String("kind", string(n.Kind)))
}

func (c *NotificationConsumer) ack(d amqp.Delivery) {
	if err := d.Ack(false); err != nil {
		logger.Log.Errorf("確認訊息失敗:", err)
	}
}

func (c *NotificationConsumer) render(n domain.AppointmentNotification) (string, string, error) {
	start := n.StartTime.In(c.location).Format("2006-01-02 15:04 MST")

	var subject, headline string
	switch n.Kind {
	case domain.NotifyCancelled:
		subject = "Appointment cancelled"
		headline = "Your consultation on " + start + " has been cancelled."
	default:
		subject = "Appointment confirmed"
		headline = "Your consultation is scheduled for " + start + "."
	}

	var buf bytes.Buffer
	err := notificationTmpl.Execute(&buf, map[string]string{
		"Headline":      headline,
		"AppointmentID": n.AppointmentID,
		"Start":         start,
		"Duration":      n.Duration.String(),
	})
	return subject, buf.String(), err
}
