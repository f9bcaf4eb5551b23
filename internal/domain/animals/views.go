package animals

import (
	"strings"
	"time"
)

// StaleAfter es la antigüedad a partir de la cual un reporte sin adoptar
// cuenta como "entrada vieja" en el dashboard del owner.
const StaleAfter = 30 * 24 * time.Hour

// Views son las cinco vistas derivadas de un snapshot de registros visibles.
// Los predicados son independientes y pueden solaparse: un registro puede
// estar a la vez en Emergency y en Stale.
type Views struct {
	Available []Report
	Pending   []Report
	Adopted   []Report
	Emergency []Report
	Stale     []Report
}

// Categorize recalcula las vistas sobre un snapshot completo.
// El snapshot ya viene sin archivados (ListVisible); igual filtramos
// Deleted por si algún caller arma el slice a mano.
func Categorize(snapshot []Report, now time.Time) Views {
	v := Views{
		Available: make([]Report, 0),
		Pending:   make([]Report, 0),
		Adopted:   make([]Report, 0),
		Emergency: make([]Report, 0),
		Stale:     make([]Report, 0),
	}

	cutoff := now.Add(-StaleAfter)

	for _, r := range snapshot {
		if r.Deleted {
			continue
		}

		switch r.State() {
		case StateAvailable:
			v.Available = append(v.Available, r)
		case StatePending:
			v.Pending = append(v.Pending, r)
		case StateAdopted:
			v.Adopted = append(v.Adopted, r)
		}

		if r.IsEmergency {
			v.Emergency = append(v.Emergency, r)
		}
		if !r.IsAdopted && r.CreatedAt.Before(cutoff) {
			v.Stale = append(v.Stale, r)
		}
	}

	return v
}

// Filter son los filtros del listado público.
type Filter struct {
	Species Species       // vacío = todas
	State   AdoptionState // vacío = todas
	Query   string        // substring case-insensitive sobre condición y dirección
}

// ApplyFilter filtra un slice de reportes según Filter.
func ApplyFilter(in []Report, f Filter) []Report {
	out := make([]Report, 0, len(in))
	q := strings.ToLower(strings.TrimSpace(f.Query))

	for _, r := range in {
		if f.Species != "" && r.Species != f.Species {
			continue
		}
		if f.State != "" && r.State() != f.State {
			continue
		}
		if q != "" {
			if !strings.Contains(strings.ToLower(r.HealthCondition), q) &&
				!strings.Contains(strings.ToLower(r.Address), q) {
				continue
			}
		}
		out = append(out, r)
	}

	return out
}
