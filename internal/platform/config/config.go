// Package config carga la configuración de la API desde variables de entorno.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config agrupa todo lo configurable de la API.
// Las integraciones son opcionales: sin DB_DSN corre in-memory, sin
// KAFKA_BROKERS no hay canal de alertas, sin S3_BUCKET no hay uploads.
type Config struct {
	// --- Servidor ---
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// --- Record store ---
	DBDSN string // vacío = repos in-memory (modo dev)

	// --- Sesión de owner ---
	OwnerPassword string // credencial compartida; vacío deshabilita el login
	TokenSecret   string // clave HMAC de los tokens de sesión
	TokenTTL      time.Duration

	// --- Canal de alertas (Kafka) ---
	KafkaBrokers []string // vacío = alertas deshabilitadas

	// --- Blob store (S3) ---
	S3Bucket    string // vacío = uploads deshabilitados
	S3Region    string
	S3PublicURL string // base pública, ej. CDN delante del bucket
}

// Load lee la configuración desde env. Solo valida lo que puede romper
// en runtime; las integraciones ausentes se apagan en el router.
func Load() (Config, error) {
	cfg := Config{
		Port:            8080,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		TokenTTL:        12 * time.Hour,
	}

	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 || p > 65535 {
			return Config{}, fmt.Errorf("PORT: invalid value %q", v)
		}
		cfg.Port = p
	}

	var err error
	if cfg.ReadTimeout, err = envDuration("HTTP_READ_TIMEOUT", cfg.ReadTimeout); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = envDuration("HTTP_WRITE_TIMEOUT", cfg.WriteTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = envDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = envDuration("TOKEN_TTL", cfg.TokenTTL); err != nil {
		return Config{}, err
	}

	cfg.DBDSN = strings.TrimSpace(os.Getenv("DB_DSN"))

	cfg.OwnerPassword = os.Getenv("OWNER_PASSWORD")
	cfg.TokenSecret = os.Getenv("TOKEN_SECRET")
	if cfg.OwnerPassword != "" && cfg.TokenSecret == "" {
		return Config{}, fmt.Errorf("TOKEN_SECRET is required when OWNER_PASSWORD is set")
	}

	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		cfg.KafkaBrokers = strings.Split(v, ",")
	}

	cfg.S3Bucket = strings.TrimSpace(os.Getenv("S3_BUCKET"))
	cfg.S3Region = strings.TrimSpace(os.Getenv("S3_REGION"))
	cfg.S3PublicURL = strings.TrimRight(strings.TrimSpace(os.Getenv("S3_PUBLIC_URL")), "/")
	if cfg.S3Bucket != "" && cfg.S3Region == "" {
		return Config{}, fmt.Errorf("S3_REGION is required when S3_BUCKET is set")
	}

	return cfg, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
