package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"paws-and-places/internal/domain/animals"
)

// AnimalsRepo es el record store in-memory para dev y tests.
// Emite señales de cambio por un canal propio (changefeed in-process).
type AnimalsRepo struct {
	mu   sync.RWMutex
	byID map[string]animals.Report

	feedMu sync.Mutex
	feeds  []chan struct{}
}

func NewAnimalsRepo() *AnimalsRepo {
	return &AnimalsRepo{
		byID: make(map[string]animals.Report),
	}
}

func (r *AnimalsRepo) Create(ctx context.Context, rep animals.Report) error {
	r.mu.Lock()

	if strings.TrimSpace(rep.ID) == "" {
		r.mu.Unlock()
		return errors.New("report id required")
	}
	if _, exists := r.byID[rep.ID]; exists {
		r.mu.Unlock()
		return errors.New("report already exists")
	}
	r.byID[rep.ID] = rep
	r.mu.Unlock()

	r.notify()
	return nil
}

func (r *AnimalsRepo) GetByID(ctx context.Context, id string) (animals.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rep, ok := r.byID[id]
	if !ok {
		return animals.Report{}, animals.ErrNotFound
	}
	return rep, nil
}

func (r *AnimalsRepo) ListVisible(ctx context.Context) ([]animals.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]animals.Report, 0)
	for _, rep := range r.byID {
		if !rep.Deleted {
			out = append(out, rep)
		}
	}

	// created_at desc, igual que el adapter de postgres
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (r *AnimalsRepo) ListArchived(ctx context.Context) ([]animals.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]animals.Report, 0)
	for _, rep := range r.byID {
		if rep.Deleted {
			out = append(out, rep)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		ti, tj := time.Time{}, time.Time{}
		if out[i].DeletedAt != nil {
			ti = *out[i].DeletedAt
		}
		if out[j].DeletedAt != nil {
			tj = *out[j].DeletedAt
		}
		return ti.After(tj)
	})

	return out, nil
}

func (r *AnimalsRepo) UpdateAdoption(ctx context.Context, id string, u animals.AdoptionUpdate) (animals.Report, error) {
	r.mu.Lock()

	rep, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return animals.Report{}, animals.ErrNotFound
	}

	rep.IsAdopted = u.IsAdopted
	rep.Adopter = u.Adopter
	rep.AdoptedAt = u.AdoptedAt
	r.byID[id] = rep
	r.mu.Unlock()

	r.notify()
	return rep, nil
}

func (r *AnimalsRepo) SetDeleted(ctx context.Context, id string, deleted bool, deletedAt *time.Time) error {
	r.mu.Lock()

	rep, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return animals.ErrNotFound
	}

	rep.Deleted = deleted
	rep.DeletedAt = deletedAt
	r.byID[id] = rep
	r.mu.Unlock()

	r.notify()
	return nil
}

func (r *AnimalsRepo) Purge(ctx context.Context, id string) error {
	r.mu.Lock()

	if _, ok := r.byID[id]; !ok {
		r.mu.Unlock()
		return animals.ErrNotFound
	}
	delete(r.byID, id)
	r.mu.Unlock()

	r.notify()
	return nil
}

// Subscribe implementa changefeed.Subscriber sobre el repo in-memory.
func (r *AnimalsRepo) Subscribe(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	r.feedMu.Lock()
	r.feeds = append(r.feeds, ch)
	r.feedMu.Unlock()

	go func() {
		<-ctx.Done()
		r.feedMu.Lock()
		for i, c := range r.feeds {
			if c == ch {
				r.feeds = append(r.feeds[:i], r.feeds[i+1:]...)
				break
			}
		}
		r.feedMu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// notify avisa "algo cambió" sin payload; si el suscriptor está atrasado
// la señal se colapsa (el canal tiene buffer 1).
func (r *AnimalsRepo) notify() {
	r.feedMu.Lock()
	defer r.feedMu.Unlock()
	for _, ch := range r.feeds {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
