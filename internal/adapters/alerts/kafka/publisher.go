// Package kafka implementa el canal de alertas de emergencia sobre un
// topic outbox: la API publica payloads estructurados y el alert-sender
// los consume y entrega por SMS.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"paws-and-places/internal/ports/alerts"

	kafkago "github.com/segmentio/kafka-go"
)

const (
	// OutboxTopic es donde la API publica las emergencias a entregar.
	OutboxTopic = "emergency-alerts"

	// DLQTopic recibe los mensajes que agotaron los reintentos, para
	// inspección y replay manual sin frenar al consumer.
	DLQTopic = "emergency-alerts-dlq"
)

// Publisher implementa alerts.Publisher escribiendo al topic outbox.
type Publisher struct {
	writer *kafkago.Writer
}

func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        OutboxTopic,
			Balancer:     &kafkago.LeastBytes{},
			RequiredAcks: kafkago.RequireOne,
		},
	}
}

func (p *Publisher) PublishEmergency(ctx context.Context, e alerts.Emergency) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal emergency: %w", err)
	}

	// Key = report id para que los duplicados sean detectables al replay.
	return p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(e.ReportID),
		Value: b,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
