package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"paws-and-places/internal/platform/logger"
	"paws-and-places/internal/ports/alerts"

	kafkago "github.com/segmentio/kafka-go"
)

// maxRetries son los intentos de entrega antes de rutear al DLQ.
const maxRetries = 3

// Sender es el backend de entrega (gateway de SMS u otro medio out-of-band).
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// Consumer lee emergencias del topic outbox y las despacha vía Sender.
// Commitea offsets recién después de despachar: entrega at-least-once
// (un SMS duplicado es preferible a uno perdido).
type Consumer struct {
	reader    *kafkago.Reader
	dlq       *kafkago.Writer
	sender    Sender
	recipient string // número E.164 del responder de emergencias
	log       logger.Logger
}

func NewConsumer(brokers []string, sender Sender, recipient string, log logger.Logger) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        brokers,
		Topic:          OutboxTopic,
		GroupID:        "paws-alert-sender",
		MinBytes:       1,
		MaxBytes:       1 << 20, // 1 MiB
		CommitInterval: 0,       // commits explícitos
		StartOffset:    kafkago.LastOffset,
	})

	dlq := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        DLQTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
	}

	return &Consumer{
		reader:    reader,
		dlq:       dlq,
		sender:    sender,
		recipient: recipient,
		log:       log,
	}
}

// Run bloquea consumiendo hasta que ctx se cancele.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("consuming emergency alerts", map[string]any{"topic": OutboxTopic})

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil // shutdown limpio
			}
			return fmt.Errorf("fetch: %w", err)
		}

		if err := c.dispatch(ctx, m); err != nil {
			// dispatch ya logueó y mandó al DLQ; commiteamos igual
			// para que el consumer no se trabe.
			c.log.Warn("alert routed to DLQ", map[string]any{
				"key":   string(m.Key),
				"error": err.Error(),
			})
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.log.Warn("commit failed, message may be redelivered", map[string]any{"error": err.Error()})
		}
	}
}

func (c *Consumer) Close() error {
	rerr := c.reader.Close()
	werr := c.dlq.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}

// dispatch intenta entregar hasta maxRetries veces con backoff lineal;
// si todos fallan, el mensaje crudo va al DLQ.
func (c *Consumer) dispatch(ctx context.Context, m kafkago.Message) error {
	var e alerts.Emergency
	if err := json.Unmarshal(m.Value, &e); err != nil {
		return c.sendToDLQ(ctx, m, fmt.Errorf("unmarshal: %w", err))
	}

	body := FormatSMS(e)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		lastErr = c.sender.Send(ctx, c.recipient, body)
		if lastErr == nil {
			c.log.Info("alert delivered", map[string]any{
				"report_id": e.ReportID,
				"attempt":   attempt,
			})
			return nil
		}

		c.log.Warn("alert delivery failed", map[string]any{
			"report_id": e.ReportID,
			"attempt":   attempt,
			"error":     lastErr.Error(),
		})

		if attempt < maxRetries {
			select {
			case <-time.After(time.Duration(attempt) * 2 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return c.sendToDLQ(ctx, m, lastErr)
}

func (c *Consumer) sendToDLQ(ctx context.Context, original kafkago.Message, reason error) error {
	err := c.dlq.WriteMessages(ctx, kafkago.Message{
		Key:   original.Key,
		Value: original.Value,
	})
	if err != nil {
		c.log.Error("could not write to DLQ", map[string]any{"error": err.Error()})
	}
	return reason
}

// FormatSMS arma el texto del SMS de emergencia.
func FormatSMS(e alerts.Emergency) string {
	contact := e.ReporterContact
	if contact == "" {
		contact = "no phone provided"
	}
	return fmt.Sprintf("EMERGENCY: %d %s(s) needs urgent help at %s. Condition: %s. Contact: %s %s",
		e.Count, e.Species, e.Address, e.HealthCondition, e.ReporterName, contact)
}
