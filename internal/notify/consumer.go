package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trimline/internal/inbox"
	"trimline/internal/outbox"
	"trimline/libs/kafkax"
)

// Consumer reads booking events and mails the guest. The inbox table dedupes
// redeliveries so a retried message never sends twice.
type Consumer struct {
	reader   *kafka.Reader
	logger   *slog.Logger
	inbox    *inbox.Repository
	sender   Sender
	shopName string
}

type Config struct {
	Brokers  string
	GroupID  string
	Topic    string
	ShopName string
}

func NewConsumer(logger *slog.Logger, inboxRepo *inbox.Repository, sender Sender, cfg Config) *Consumer {
	brokers := kafkax.SplitBrokers(cfg.Brokers)
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	shopName := cfg.ShopName
	if shopName == "" {
		shopName = "the shop"
	}
	return &Consumer{
		reader:   reader,
		logger:   logger,
		inbox:    inboxRepo,
		sender:   sender,
		shopName: shopName,
	}
}

func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka read error", "err", err)
			time.Sleep(1 * time.Second)
			continue
		}

		ctxMsg := kafkax.ExtractTraceContext(ctx, msg)
		ctxSpan, span := otel.Tracer("kafka").Start(ctxMsg, "kafka.consume",
			trace.WithAttributes(
				attribute.String("messaging.system", "kafka"),
				attribute.String("messaging.destination", msg.Topic),
			),
		)

		meta := kafkax.ExtractEventMeta(msg)

		ok, err := c.inbox.Record(ctxSpan, meta.EventID, meta.EventType)
		if err != nil {
			c.logger.Error("inbox record failed", "err", err)
			span.RecordError(err)
			span.End()
			continue
		}
		if !ok {
			c.logger.Info("duplicate event ignored", "event_id", meta.EventID, "event_type", meta.EventType)
			span.End()
			continue
		}

		if err := c.handle(meta.EventType, msg.Value); err != nil {
			c.logger.Error("notification failed", "err", err, "event_id", meta.EventID)
			span.RecordError(err)
		}
		span.End()
	}
}

type bookingEvent struct {
	AppointmentID string `json:"appointment_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	GuestName     string `json:"guest_name"`
	GuestEmail    string `json:"guest_email"`
}

func (c *Consumer) handle(eventType string, payload []byte) error {
	var evt bookingEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		// Malformed payloads are logged and dropped, not retried.
		c.logger.Error("invalid event payload", "err", err, "event_type", eventType)
		return nil
	}
	if evt.GuestEmail == "" {
		return nil
	}

	switch eventType {
	case outbox.EventAppointmentBooked:
		subject := fmt.Sprintf("Booking received for %s at %s", evt.Date, evt.Time)
		body := fmt.Sprintf(
			"Hi %s,\n\nWe got your booking for %s at %s. We'll reach out to confirm.\n\n%s",
			evt.GuestName, evt.Date, evt.Time, c.shopName,
		)
		return c.sender.Send(evt.GuestEmail, subject, body)
	case outbox.EventAppointmentCancelled:
		subject := fmt.Sprintf("Your appointment on %s was cancelled", evt.Date)
		body := fmt.Sprintf(
			"Hi,\n\nYour appointment on %s at %s was cancelled. You can book a new time any time.\n\n%s",
			evt.Date, evt.Time, c.shopName,
		)
		return c.sender.Send(evt.GuestEmail, subject, body)
	default:
		c.logger.Info("unhandled event type", "event_type", eventType)
		return nil
	}
}
