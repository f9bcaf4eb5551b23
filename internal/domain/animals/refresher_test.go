package animals

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// scriptedRepo permite guionar ListVisible por llamada; el resto delega
// en el testRepo común.
type scriptedRepo struct {
	*testRepo
	listFn func(ctx context.Context) ([]Report, error)
}

func (r *scriptedRepo) ListVisible(ctx context.Context) ([]Report, error) {
	return r.listFn(ctx)
}

func TestRefresher_DetectsNewEmergenciesOnce(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	snapshot := []Report{
		{ID: "e1", CreatedAt: now, IsEmergency: true},
		{ID: "r1", CreatedAt: now},
	}

	repo := &scriptedRepo{testRepo: newTestRepo(), listFn: func(ctx context.Context) ([]Report, error) {
		return snapshot, nil
	}}

	ref := NewRefresher(repo)
	ref.now = func() time.Time { return now }

	if _, err := ref.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh #1: %v", err)
	}
	fresh := ref.DrainNewEmergencies()
	if len(fresh) != 1 || fresh[0].ID != "e1" {
		t.Fatalf("expected e1 as new emergency, got %#v", fresh)
	}

	// Mismo snapshot: nada nuevo.
	if _, err := ref.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh #2: %v", err)
	}
	if fresh := ref.DrainNewEmergencies(); len(fresh) != 0 {
		t.Fatalf("expected no repeated emergencies, got %#v", fresh)
	}

	// Aparece una emergencia nueva: solo esa se reporta.
	snapshot = append(snapshot, Report{ID: "e2", CreatedAt: now, IsEmergency: true})
	if _, err := ref.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh #3: %v", err)
	}
	fresh = ref.DrainNewEmergencies()
	if len(fresh) != 1 || fresh[0].ID != "e2" {
		t.Fatalf("expected only e2, got %#v", fresh)
	}
}

func TestRefresher_BufferSurvivesIntermediateRefreshes(t *testing.T) {
	// El refresh en background (changefeed) no debe consumir el evento:
	// la emergencia queda encolada hasta que alguien la drena.
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	repo := &scriptedRepo{testRepo: newTestRepo(), listFn: func(ctx context.Context) ([]Report, error) {
		return []Report{{ID: "e1", CreatedAt: now, IsEmergency: true}}, nil
	}}

	ref := NewRefresher(repo)

	// Dos refreshes sin drenar en el medio, como haría el changefeed.
	if _, err := ref.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh #1: %v", err)
	}
	if _, err := ref.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh #2: %v", err)
	}

	fresh := ref.DrainNewEmergencies()
	if len(fresh) != 1 || fresh[0].ID != "e1" {
		t.Fatalf("expected e1 buffered across refreshes, got %#v", fresh)
	}

	// El drain es de un solo uso.
	if fresh := ref.DrainNewEmergencies(); len(fresh) != 0 {
		t.Fatalf("expected empty buffer after drain, got %#v", fresh)
	}

	// La vista de emergencias en sí persiste.
	res, loaded := ref.Latest()
	if !loaded || len(res.Views.Emergency) != 1 {
		t.Fatalf("emergency view itself should persist, got %#v", res.Views.Emergency)
	}
}

func TestRefresher_StaleOnError(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	boom := errors.New("store down")

	fail := false
	repo := &scriptedRepo{testRepo: newTestRepo(), listFn: func(ctx context.Context) ([]Report, error) {
		if fail {
			return nil, boom
		}
		return []Report{{ID: "r1", CreatedAt: now}}, nil
	}}

	ref := NewRefresher(repo)

	if _, err := ref.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh #1: %v", err)
	}

	fail = true
	res, err := ref.Refresh(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error surfaced, got %v", err)
	}
	// stale-but-available: el snapshot anterior sigue servible
	if len(res.Snapshot) != 1 || res.Snapshot[0].ID != "r1" {
		t.Fatalf("expected previous snapshot kept, got %#v", res.Snapshot)
	}

	if _, loaded := ref.Latest(); !loaded {
		t.Fatalf("expected loaded to survive a failed refresh")
	}
}

func TestRefresher_LatestBeforeFirstRefresh(t *testing.T) {
	ref := NewRefresher(newTestRepo())

	if _, loaded := ref.Latest(); loaded {
		t.Fatalf("expected loaded=false before any refresh")
	}
}

func TestRefresher_DiscardsSupersededResult(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	var (
		mu      sync.Mutex
		first   = true
		started = make(chan struct{})
		release = make(chan struct{})
	)

	repo := &scriptedRepo{testRepo: newTestRepo(), listFn: func(ctx context.Context) ([]Report, error) {
		mu.Lock()
		isFirst := first
		first = false
		mu.Unlock()

		if isFirst {
			// El primer fetch queda colgado hasta que el segundo termine.
			close(started)
			<-release
			return []Report{{ID: "old", CreatedAt: now}}, nil
		}
		return []Report{{ID: "new", CreatedAt: now}}, nil
	}}

	ref := NewRefresher(repo)

	type result struct {
		res RefreshResult
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := ref.Refresh(context.Background())
		done <- result{res, err}
	}()

	<-started
	if _, err := ref.Refresh(context.Background()); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	close(release)

	got := <-done
	if got.err != nil {
		t.Fatalf("first refresh: %v", got.err)
	}
	// El resultado viejo se descarta: el caller recibe lo vigente.
	if len(got.res.Snapshot) != 1 || got.res.Snapshot[0].ID != "new" {
		t.Fatalf("expected superseded refresh to yield the newer snapshot, got %#v", got.res.Snapshot)
	}

	latest, _ := ref.Latest()
	if len(latest.Snapshot) != 1 || latest.Snapshot[0].ID != "new" {
		t.Fatalf("expected latest snapshot to stay new, got %#v", latest.Snapshot)
	}
}
