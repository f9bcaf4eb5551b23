package animals

import (
	"context"
	"time"
)

// AdoptionUpdate es el update parcial que aplican las transiciones de adopción.
// Cada transición es un único write atómico sobre un registro.
type AdoptionUpdate struct {
	IsAdopted bool
	Adopter   Contact
	AdoptedAt *time.Time
}

type Repository interface {
	Create(ctx context.Context, r Report) error
	GetByID(ctx context.Context, id string) (Report, error)

	// ListVisible devuelve los registros no archivados, created_at descendente.
	ListVisible(ctx context.Context) ([]Report, error)

	// ListArchived devuelve los soft-deleted, deleted_at descendente.
	ListArchived(ctx context.Context) ([]Report, error)

	// UpdateAdoption aplica solo los campos de adopción y devuelve el registro
	// resultante. Last-write-wins: no hay lock optimista (ver DESIGN.md).
	UpdateAdoption(ctx context.Context, id string, u AdoptionUpdate) (Report, error)

	// SetDeleted marca/desmarca el soft-delete. deletedAt nil = restaurar.
	SetDeleted(ctx context.Context, id string, deleted bool, deletedAt *time.Time) error

	// Purge elimina físicamente. Irreversible, owner-only (lo valida el service).
	Purge(ctx context.Context, id string) error
}
