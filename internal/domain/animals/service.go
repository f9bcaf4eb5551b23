package animals

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"paws-and-places/internal/platform/logger"
	"paws-and-places/internal/ports/alerts"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrBadState     = errors.New("invalid state")
)

// Session es la capability explícita que elevan los handlers: las
// operaciones privilegiadas la exigen en vez de leer estado ambiente.
type Session struct {
	Owner bool
}

type Service struct {
	repo   Repository
	alerts alerts.Publisher // puede ser nil (modo dev, sin canal de alertas)
	log    logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, pub alerts.Publisher, log logger.Logger) *Service {
	if log == nil {
		log = logger.New(logger.Options{})
	}
	return &Service{
		repo:   repo,
		alerts: pub,
		log:    log,
		now:    time.Now,
	}
}

type ReportInput struct {
	Species         string
	Count           int
	HealthCondition string
	Address         string
	MapURL          string
	PhotoURL        string
	QRCodeURL       string
	Reporter        Contact
	IsEmergency     bool
}

// Report crea un reporte nuevo en estado AVAILABLE.
// Si es emergencia, publica la alerta al canal out-of-band; el fallo de
// publicación se loguea pero nunca voltea la creación del reporte.
func (s *Service) Report(ctx context.Context, in ReportInput) (Report, error) {
	species := Species(strings.TrimSpace(in.Species))
	if species != SpeciesDog && species != SpeciesCat {
		return Report{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.HealthCondition) == "" {
		return Report{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Address) == "" || strings.TrimSpace(in.MapURL) == "" {
		return Report{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.QRCodeURL) == "" {
		return Report{}, ErrInvalidInput
	}
	reporter, err := normalizeContact(in.Reporter)
	if err != nil {
		return Report{}, err
	}

	count := in.Count
	if count == 0 {
		count = 1
	}
	if count < 1 {
		return Report{}, ErrInvalidInput
	}

	r := Report{
		ID:              uuid.NewString(),
		Species:         species,
		Count:           count,
		HealthCondition: strings.TrimSpace(in.HealthCondition),
		Address:         strings.TrimSpace(in.Address),
		MapURL:          strings.TrimSpace(in.MapURL),
		PhotoURL:        strings.TrimSpace(in.PhotoURL),
		QRCodeURL:       strings.TrimSpace(in.QRCodeURL),
		Reporter:        reporter,
		IsEmergency:     in.IsEmergency,
		CreatedAt:       s.now(),
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return Report{}, err
	}

	if r.IsEmergency {
		s.publishEmergency(ctx, r)
	}

	return r, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Report, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Report{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// ListPublic es el listado público: snapshot visible + Filter.
// El default (solo disponibles) lo decide el handler, no el motor.
func (s *Service) ListPublic(ctx context.Context, f Filter) ([]Report, error) {
	snapshot, err := s.repo.ListVisible(ctx)
	if err != nil {
		return nil, err
	}
	return ApplyFilter(snapshot, f), nil
}

// ListArchived es la vista de auditoría de soft-deleted, owner-only.
func (s *Service) ListArchived(ctx context.Context, sess Session) ([]Report, error) {
	if !sess.Owner {
		return nil, ErrForbidden
	}
	return s.repo.ListArchived(ctx)
}

// Delete hace soft-delete: el registro sale de todas las vistas derivadas
// y pasa a la vista de archivo.
func (s *Service) Delete(ctx context.Context, sess Session, id string) error {
	if !sess.Owner {
		return ErrForbidden
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}
	now := s.now()
	return s.repo.SetDeleted(ctx, id, true, &now)
}

// Restore deshace el soft-delete.
func (s *Service) Restore(ctx context.Context, sess Session, id string) error {
	if !sess.Owner {
		return ErrForbidden
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}
	return s.repo.SetDeleted(ctx, id, false, nil)
}

// Purge elimina físicamente un registro ya archivado. Irreversible.
func (s *Service) Purge(ctx context.Context, sess Session, id string) error {
	if !sess.Owner {
		return ErrForbidden
	}

	r, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if !r.Deleted {
		// Purge solo sobre archivados: primero soft-delete.
		return ErrBadState
	}
	return s.repo.Purge(ctx, r.ID)
}

func (s *Service) publishEmergency(ctx context.Context, r Report) {
	if s.alerts == nil {
		return
	}

	err := s.alerts.PublishEmergency(ctx, alerts.Emergency{
		ReportID:        r.ID,
		Species:         string(r.Species),
		Count:           r.Count,
		Address:         r.Address,
		HealthCondition: r.HealthCondition,
		ReporterName:    r.Reporter.Name,
		ReporterContact: r.Reporter.Phone,
	})
	if err != nil {
		s.log.Error("emergency alert publish failed", map[string]any{
			"report_id": r.ID,
			"error":     err.Error(),
		})
		return
	}
	s.log.Info("emergency alert published", map[string]any{"report_id": r.ID})
}

// normalizeContact exige nombre y un email sintácticamente válido.
func normalizeContact(c Contact) (Contact, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)

	if c.Name == "" || c.Email == "" {
		return Contact{}, ErrInvalidInput
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return Contact{}, ErrInvalidInput
	}
	return c, nil
}
