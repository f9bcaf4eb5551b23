package animals

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"paws-and-places/internal/middleware"
	"paws-and-places/internal/ports/media"

	"github.com/go-chi/chi/v5"
)

// LoginFunc canjea la credencial del owner por un token de sesión.
// Lo implementa el adapter ownertoken; acá solo importa la firma.
type LoginFunc func(password string) (string, error)

func RegisterRoutes(r chi.Router, svc *Service, ref *Refresher, login LoginFunc, uploads media.Store) {
	// Reportes (público)
	r.Route("/animals", func(ar chi.Router) {
		ar.Post("/", reportHandler(svc))
		ar.Get("/", listAnimalsHandler(svc))
		ar.Get("/{animalID}", getAnimalHandler(svc))

		// Adopción: pedir es público, verificar/rechazar es del owner.
		ar.Post("/{animalID}/adoption-request", requestAdoptionHandler(svc))
		ar.Post("/{animalID}/verify", verifyAdoptionHandler(svc))
		ar.Post("/{animalID}/reject", rejectAdoptionHandler(svc))

		// Ciclo de archivo (owner)
		ar.Delete("/{animalID}", deleteAnimalHandler(svc))
		ar.Post("/{animalID}/restore", restoreAnimalHandler(svc))
		ar.Delete("/{animalID}/purge", purgeAnimalHandler(svc))
	})

	// Panel del owner
	r.Post("/owner/login", loginHandler(login))
	r.Get("/owner/dashboard", dashboardHandler(ref))
	r.Get("/owner/archive", listArchiveHandler(svc))

	// Subidas (foto / QR) vía PUT presignado
	r.Post("/uploads", presignUploadHandler(uploads))
}

type contactPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type reportRequest struct {
	Species         string         `json:"species"`
	Count           int            `json:"count"`
	HealthCondition string         `json:"health_condition"`
	Address         string         `json:"address"`
	MapURL          string         `json:"map_url"`
	PhotoURL        string         `json:"photo_url"`
	QRCodeURL       string         `json:"qr_code_url"`
	Reporter        contactPayload `json:"reporter"`
	IsEmergency     bool           `json:"is_emergency"`
}

type reportResponse struct {
	ID              string          `json:"id"`
	Species         string          `json:"species"`
	Count           int             `json:"count"`
	HealthCondition string          `json:"health_condition"`
	Address         string          `json:"address"`
	MapURL          string          `json:"map_url"`
	PhotoURL        string          `json:"photo_url,omitempty"`
	QRCodeURL       string          `json:"qr_code_url"`
	Reporter        contactPayload  `json:"reporter"`
	IsEmergency     bool            `json:"is_emergency"`
	State           string          `json:"state"`
	IsAdopted       bool            `json:"is_adopted"`
	Adopter         *contactPayload `json:"adopter,omitempty"`
	AdoptedAt       *time.Time      `json:"adopted_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	DeletedAt       *time.Time      `json:"deleted_at,omitempty"`
}

type adoptionRequest struct {
	Adopter contactPayload `json:"adopter"`
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type presignRequest struct {
	Kind        string `json:"kind"` // photo | qr-code
	ContentType string `json:"content_type"`
}

type viewsResponse struct {
	Available []reportResponse `json:"available"`
	Pending   []reportResponse `json:"pending"`
	Adopted   []reportResponse `json:"adopted"`
	Emergency []reportResponse `json:"emergency"`
	Stale     []reportResponse `json:"stale"`
}

type dashboardResponse struct {
	Animals        []reportResponse `json:"animals"`
	Views          viewsResponse    `json:"views"`
	NewEmergencies []reportResponse `json:"new_emergencies"`
	// Stale indica que el store falló y esto es el último snapshot bueno.
	Stale bool `json:"stale"`
}

func reportHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		created, err := svc.Report(r.Context(), ReportInput{
			Species:         req.Species,
			Count:           req.Count,
			HealthCondition: req.HealthCondition,
			Address:         req.Address,
			MapURL:          req.MapURL,
			PhotoURL:        req.PhotoURL,
			QRCodeURL:       req.QRCodeURL,
			Reporter:        fromContactPayload(req.Reporter),
			IsEmergency:     req.IsEmergency,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toReportResponse(created))
	}
}

func listAnimalsHandler(svc *Service) http.HandlerFunc {
	// Listado público. Por defecto solo disponibles; ?state=all muestra
	// todo lo visible, ?state=pending|adopted filtra por sub-estado.
	return func(w http.ResponseWriter, r *http.Request) {
		f := Filter{
			Species: Species(strings.TrimSpace(r.URL.Query().Get("species"))),
			Query:   r.URL.Query().Get("q"),
		}

		switch state := strings.TrimSpace(r.URL.Query().Get("state")); state {
		case "":
			f.State = StateAvailable
		case "all":
			// sin filtro de estado
		case string(StateAvailable), string(StatePending), string(StateAdopted):
			f.State = AdoptionState(state)
		default:
			http.Error(w, "state must be available, pending, adopted or all", http.StatusBadRequest)
			return
		}

		items, err := svc.ListPublic(r.Context(), f)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toReportResponses(items))
	}
}

func getAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := svc.GetByID(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		// Los archivados solo existen para el owner (vista de archivo).
		if rep.Deleted && !middleware.IsOwner(r.Context()) {
			http.Error(w, "animal not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, toReportResponse(rep))
	}
}

func requestAdoptionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req adoptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		updated, err := svc.RequestAdoption(r.Context(), chi.URLParam(r, "animalID"), fromContactPayload(req.Adopter))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toReportResponse(updated))
	}
}

func verifyAdoptionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := ownerSession(w, r)
		if !ok {
			return
		}

		// El body es opcional: sin body (o con body vacío) se confirma al
		// adoptante que ya está pendiente.
		var req adoptionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		id := chi.URLParam(r, "animalID")
		adopter := fromContactPayload(req.Adopter)
		if adopter.Name == "" && adopter.Email == "" {
			current, err := svc.GetByID(r.Context(), id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			adopter = current.Adopter
		}

		updated, err := svc.VerifyAdoption(r.Context(), sess, id, adopter)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toReportResponse(updated))
	}
}

func rejectAdoptionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := ownerSession(w, r)
		if !ok {
			return
		}

		updated, err := svc.RejectAdoption(r.Context(), sess, chi.URLParam(r, "animalID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toReportResponse(updated))
	}
}

func deleteAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := ownerSession(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), sess, chi.URLParam(r, "animalID")); err != nil {
			writeServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func restoreAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := ownerSession(w, r)
		if !ok {
			return
		}

		if err := svc.Restore(r.Context(), sess, chi.URLParam(r, "animalID")); err != nil {
			writeServiceError(w, err)
			return
		}

		rep, err := svc.GetByID(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReportResponse(rep))
	}
}

func purgeAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := ownerSession(w, r)
		if !ok {
			return
		}

		if err := svc.Purge(r.Context(), sess, chi.URLParam(r, "animalID")); err != nil {
			writeServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func loginHandler(login LoginFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if login == nil {
			http.Error(w, "login not configured", http.StatusServiceUnavailable)
			return
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		token, err := login(req.Password)
		if err != nil {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}

		writeJSON(w, http.StatusOK, loginResponse{Token: token})
	}
}

func dashboardHandler(ref *Refresher) http.HandlerFunc {
	// Cada GET del dashboard es un refresh: recarga el snapshot y recalcula
	// las vistas. Si el store falla, se sirve lo último bueno con stale=true;
	// reintentar es simplemente volver a pedir el dashboard.
	return func(w http.ResponseWriter, r *http.Request) {
		if !middleware.IsOwner(r.Context()) {
			writeAuthError(w, r)
			return
		}

		res, err := ref.Refresh(r.Context())
		stale := false
		if err != nil {
			if _, loaded := ref.Latest(); !loaded {
				http.Error(w, "store unavailable", http.StatusBadGateway)
				return
			}
			stale = true
		}

		// El dashboard es el consumidor de los eventos de emergencia:
		// se drenan acá, no importa quién corrió el refresh que los detectó.
		writeJSON(w, http.StatusOK, dashboardResponse{
			Animals: toReportResponses(res.Snapshot),
			Views: viewsResponse{
				Available: toReportResponses(res.Views.Available),
				Pending:   toReportResponses(res.Views.Pending),
				Adopted:   toReportResponses(res.Views.Adopted),
				Emergency: toReportResponses(res.Views.Emergency),
				Stale:     toReportResponses(res.Views.Stale),
			},
			NewEmergencies: toReportResponses(ref.DrainNewEmergencies()),
			Stale:          stale,
		})
	}
}

func listArchiveHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := ownerSession(w, r)
		if !ok {
			return
		}

		items, err := svc.ListArchived(r.Context(), sess)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toReportResponses(items))
	}
}

func presignUploadHandler(store media.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, "uploads not configured", http.StatusServiceUnavailable)
			return
		}

		var req presignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var kind media.Kind
		switch req.Kind {
		case string(media.KindPhoto):
			kind = media.KindPhoto
		case string(media.KindQRCode):
			kind = media.KindQRCode
		default:
			http.Error(w, "kind must be photo or qr-code", http.StatusBadRequest)
			return
		}

		ticket, err := store.PresignUpload(r.Context(), kind, req.ContentType)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusOK, ticket)
	}
}

// ownerSession exige sesión de owner y la convierte en la capability
// explícita que piden los use-cases.
func ownerSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	if !middleware.IsOwner(r.Context()) {
		writeAuthError(w, r)
		return Session{}, false
	}
	return Session{Owner: true}, true
}

func writeAuthError(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetClaims(r.Context()); !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	http.Error(w, "forbidden", http.StatusForbidden)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "animal not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrBadState):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func fromContactPayload(c contactPayload) Contact {
	return Contact{Name: c.Name, Email: c.Email, Phone: c.Phone}
}

func toReportResponse(r Report) reportResponse {
	out := reportResponse{
		ID:              r.ID,
		Species:         string(r.Species),
		Count:           r.Count,
		HealthCondition: r.HealthCondition,
		Address:         r.Address,
		MapURL:          r.MapURL,
		PhotoURL:        r.PhotoURL,
		QRCodeURL:       r.QRCodeURL,
		Reporter: contactPayload{
			Name:  r.Reporter.Name,
			Email: r.Reporter.Email,
			Phone: r.Reporter.Phone,
		},
		IsEmergency: r.IsEmergency,
		State:       string(r.State()),
		IsAdopted:   r.IsAdopted,
		AdoptedAt:   r.AdoptedAt,
		CreatedAt:   r.CreatedAt,
		DeletedAt:   r.DeletedAt,
	}
	if r.Adopter.Name != "" {
		out.Adopter = &contactPayload{
			Name:  r.Adopter.Name,
			Email: r.Adopter.Email,
			Phone: r.Adopter.Phone,
		}
	}
	return out
}

func toReportResponses(in []Report) []reportResponse {
	out := make([]reportResponse, 0, len(in))
	for _, r := range in {
		out = append(out, toReportResponse(r))
	}
	return out
}

// writeJSON está duplicado a propósito por módulo, igual que en el resto
// del código: los helpers compartidos se extraen recién cuando duelen.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
