package animals

import "time"

// Species define las especies soportadas.
// @Enum dog, cat
type Species string

const (
	SpeciesDog Species = "dog"
	SpeciesCat Species = "cat"
)

// AdoptionState es el estado derivado de adopción de un reporte.
// No se persiste: se deriva de los campos AdopterName / IsAdopted.
type AdoptionState string

const (
	StateAvailable AdoptionState = "available"
	StatePending   AdoptionState = "pending"
	StateAdopted   AdoptionState = "adopted"
)

// Contact agrupa los datos de contacto de una persona (reportero o adoptante).
type Contact struct {
	Name  string
	Email string
	Phone string // opcional
}

// Report representa un reporte de animal callejero con su ciclo de adopción.
type Report struct {
	ID string

	Species Species
	Count   int // cuántos animales en la misma situación (>= 1)

	HealthCondition string
	Address         string
	MapURL          string

	PhotoURL  string // opcional, referencia pública al blob store
	QRCodeURL string // QR de donaciones (GPay o similar)

	Reporter Contact

	IsEmergency bool // inmutable después de la creación

	// Sub-estado de adopción. Invariante: AdoptedAt != nil <=> IsAdopted.
	IsAdopted bool
	Adopter   Contact
	AdoptedAt *time.Time

	CreatedAt time.Time

	// Soft-delete: Deleted=true saca el registro de todas las vistas
	// salvo la vista de archivo. DeletedAt acompaña para auditoría.
	Deleted   bool
	DeletedAt *time.Time
}

// State deriva el estado de adopción a partir de los campos persistidos.
func (r Report) State() AdoptionState {
	if r.IsAdopted {
		return StateAdopted
	}
	if r.Adopter.Name != "" {
		return StatePending
	}
	return StateAvailable
}
