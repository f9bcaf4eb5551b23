package animals

import (
	"context"
	"strings"
)

// Transiciones del sub-estado de adopción.
//
// AVAILABLE -> PENDING  RequestAdoption (público)
// PENDING   -> ADOPTED  VerifyAdoption  (owner)
// PENDING   -> AVAILABLE RejectAdoption (owner)
//
// ADOPTED es terminal: no hay "des-adoptar" (ver DESIGN.md).

// RequestAdoption registra un pedido de adopción: guarda la identidad del
// adoptante sin tocar IsAdopted. Dos pedidos simultáneos sobre el mismo
// registro quedan ambos en PENDING con last-write-wins sobre los campos
// del adoptante: no hay lock optimista (ver DESIGN.md).
func (s *Service) RequestAdoption(ctx context.Context, id string, adopter Contact) (Report, error) {
	adopter, err := normalizeContact(adopter)
	if err != nil {
		return Report{}, err
	}

	r, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Report{}, err
	}
	if r.Deleted {
		return Report{}, ErrNotFound
	}
	if r.State() == StateAdopted {
		return Report{}, ErrBadState
	}

	return s.repo.UpdateAdoption(ctx, r.ID, AdoptionUpdate{
		IsAdopted: false,
		Adopter:   adopter,
		AdoptedAt: nil,
	})
}

// VerifyAdoption confirma una adopción pendiente. El owner puede corregir
// los datos del adoptante al verificar; AdoptedAt queda en ahora.
func (s *Service) VerifyAdoption(ctx context.Context, sess Session, id string, adopter Contact) (Report, error) {
	if !sess.Owner {
		return Report{}, ErrForbidden
	}

	r, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Report{}, err
	}
	if r.Deleted {
		return Report{}, ErrNotFound
	}
	// El estado se valida antes que el adoptante: una transición ilegal
	// es ErrBadState aunque el adoptante venga vacío o inválido.
	if r.State() != StatePending {
		return Report{}, ErrBadState
	}

	adopter, err = normalizeContact(adopter)
	if err != nil {
		return Report{}, err
	}

	now := s.now()
	return s.repo.UpdateAdoption(ctx, r.ID, AdoptionUpdate{
		IsAdopted: true,
		Adopter:   adopter,
		AdoptedAt: &now,
	})
}

// RejectAdoption devuelve un registro pendiente a AVAILABLE limpiando los
// campos del adoptante. Rechazar algo ya disponible es no-op sin error.
func (s *Service) RejectAdoption(ctx context.Context, sess Session, id string) (Report, error) {
	if !sess.Owner {
		return Report{}, ErrForbidden
	}

	r, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Report{}, err
	}
	if r.Deleted {
		return Report{}, ErrNotFound
	}

	switch r.State() {
	case StateAdopted:
		return Report{}, ErrBadState
	case StateAvailable:
		// idempotente
		return r, nil
	}

	return s.repo.UpdateAdoption(ctx, r.ID, AdoptionUpdate{
		IsAdopted: false,
		Adopter:   Contact{},
		AdoptedAt: nil,
	})
}
