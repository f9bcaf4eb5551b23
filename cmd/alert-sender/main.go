// alert-sender es el consumidor del canal de emergencias: lee las alertas
// del topic "emergency-alerts" y las entrega como SMS al contacto de rescate.
//
// Se configura entero por env:
//
//	KAFKA_BROKERS        lista de brokers separada por comas
//	SMS_GATEWAY_URL      base URL del gateway de SMS
//	SMS_GATEWAY_API_KEY  API key del gateway
//	SMS_FROM_NUMBER      número E.164 de origen
//	ALERT_RECIPIENT      número E.164 que recibe las alertas
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	kafkaalerts "paws-and-places/internal/adapters/alerts/kafka"
	"paws-and-places/internal/adapters/alerts/smsgateway"
	"paws-and-places/internal/platform/logger"
)

func main() {
	log := logger.NewFromEnv("alert-sender")

	brokers := requireEnv(log, "KAFKA_BROKERS")
	gatewayURL := requireEnv(log, "SMS_GATEWAY_URL")
	apiKey := requireEnv(log, "SMS_GATEWAY_API_KEY")
	fromNumber := requireEnv(log, "SMS_FROM_NUMBER")
	recipient := requireEnv(log, "ALERT_RECIPIENT")

	sender, err := smsgateway.NewSender(gatewayURL, apiKey, fromNumber)
	if err != nil {
		log.Error("sms gateway", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	consumer := kafkaalerts.NewConsumer(strings.Split(brokers, ","), sender, recipient, log)
	defer func() {
		if err := consumer.Close(); err != nil {
			log.Warn("closing consumer", map[string]any{"error": err.Error()})
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting", map[string]any{"brokers": brokers, "recipient": recipient})
	if err := consumer.Run(ctx); err != nil {
		log.Error("consumer", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	log.Info("shutdown complete", nil)
}

// requireEnv corta el arranque si falta configuración: mejor fallar fuerte
// al inicio que un error de auth a mitad de la noche.
func requireEnv(log logger.Logger, key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		log.Error("missing required environment variable", map[string]any{"key": key})
		os.Exit(1)
	}
	return v
}
