package animals

import (
	"context"
	"sync"
	"time"
)

// RefreshResult es lo que produce una pasada de categorización.
type RefreshResult struct {
	// Snapshot completo de registros visibles (para el listado sin filtrar
	// del dashboard), created_at descendente tal como lo entrega el repo.
	Snapshot []Report

	// Las cinco vistas derivadas.
	Views Views
}

// Refresher mantiene el único estado en memoria del motor:
// - el último snapshot aplicado y sus vistas derivadas
// - los ids de emergencias ya vistas (se resetea al reiniciar el proceso)
// - las emergencias nuevas detectadas y todavía no entregadas
// - un contador de generación para descartar refreshes viejos en vuelo
//
// El fetch va fuera del lock: dos refreshes concurrentes pueden solaparse
// y el que resulte más viejo se descarta por comparación de generación.
//
// Las emergencias nuevas se acumulan en un buffer hasta que alguien las
// drena con DrainNewEmergencies: así el evento no se pierde cuando el
// refresh lo corre el changefeed en background y no el dashboard.
type Refresher struct {
	repo Repository
	now  func() time.Time

	mu      sync.Mutex
	issued  uint64 // última generación emitida
	last    RefreshResult
	loaded  bool
	seen    map[string]struct{} // ids de emergencias ya reportadas
	pending []Report            // emergencias detectadas sin entregar
}

func NewRefresher(repo Repository) *Refresher {
	return &Refresher{
		repo: repo,
		now:  time.Now,
		seen: make(map[string]struct{}),
	}
}

// Refresh recarga el snapshot completo, recalcula las vistas y encola las
// emergencias cuyo id no se había visto antes.
//
// Si la lectura falla, el resultado anterior queda como estaba
// (stale-but-available) y se devuelve junto con el error.
// Si mientras cargaba se emitió una generación más nueva, el resultado
// se descarta silenciosamente y se devuelve lo vigente.
func (f *Refresher) Refresh(ctx context.Context) (RefreshResult, error) {
	f.mu.Lock()
	f.issued++
	gen := f.issued
	f.mu.Unlock()

	snapshot, err := f.repo.ListVisible(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		return f.last, err
	}

	if gen < f.issued {
		// Hay un refresh más nuevo emitido: este resultado ya es viejo.
		return f.last, nil
	}

	views := Categorize(snapshot, f.now())

	for _, r := range views.Emergency {
		if _, ok := f.seen[r.ID]; !ok {
			f.pending = append(f.pending, r)
		}
		f.seen[r.ID] = struct{}{}
	}

	f.last = RefreshResult{
		Snapshot: snapshot,
		Views:    views,
	}
	f.loaded = true

	return f.last, nil
}

// Latest devuelve el último resultado aplicado sin tocar el store.
// ok=false si todavía no hubo ningún refresh exitoso.
func (f *Refresher) Latest() (RefreshResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, f.loaded
}

// DrainNewEmergencies entrega y vacía el buffer de emergencias nuevas.
// Cada emergencia sale una sola vez, sin importar quién corrió el refresh
// que la detectó.
func (f *Refresher) DrainNewEmergencies() []Report {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.pending
	f.pending = nil
	return out
}
