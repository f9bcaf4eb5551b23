package postgres

import (
	"context"

	"paws-and-places/internal/platform/logger"

	"github.com/jackc/pgx/v5"
)

// channelName es el canal de pg_notify que dispara el trigger de la
// migración 0002. Sin payload: la señal solo significa "re-fetch".
const channelName = "animals_changed"

// Listener implementa changefeed.Subscriber sobre LISTEN/NOTIFY.
// Usa una conexión pgx dedicada (LISTEN no funciona a través del pool
// de database/sql).
type Listener struct {
	dsn string
	log logger.Logger
}

func NewListener(dsn string, log logger.Logger) *Listener {
	return &Listener{dsn: dsn, log: log}
}

func (l *Listener) Subscribe(ctx context.Context) (<-chan struct{}, error) {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(ctx, "LISTEN "+channelName); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}

	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)
		defer func() { _ = conn.Close(context.Background()) }()

		for {
			if _, err := conn.WaitForNotification(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				// Conexión caída: el caller sigue con snapshots viejos
				// hasta el próximo refresh explícito.
				l.log.Warn("changefeed connection lost", map[string]any{"error": err.Error()})
				return
			}

			// Colapsar señales: buffer 1, si está lleno ya hay re-fetch pendiente.
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}()

	return ch, nil
}
