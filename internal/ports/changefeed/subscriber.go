package changefeed

import "context"

// Subscriber entrega señales "algo cambió, re-fetch" del record store.
// Sin payload: el consumidor siempre recarga el snapshot completo.
type Subscriber interface {
	// Subscribe devuelve un canal que emite por cada cambio hasta que
	// ctx se cancela. El canal se cierra al terminar.
	Subscribe(ctx context.Context) (<-chan struct{}, error)
}
