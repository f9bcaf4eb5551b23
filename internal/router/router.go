package router

import (
	"context"
	"database/sql"
	_ "embed"
	"net/http"
	"os"

	mem "paws-and-places/internal/adapters/storage/memory"
	pg "paws-and-places/internal/adapters/storage/postgres"
	"paws-and-places/internal/domain/animals"
	"paws-and-places/internal/middleware"
	"paws-and-places/internal/platform/logger"
	"paws-and-places/internal/ports/alerts"
	"paws-and-places/internal/ports/auth"
	"paws-and-places/internal/ports/changefeed"
	"paws-and-places/internal/ports/media"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed openapi.json
var openapiSpec []byte

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev, X-Debug-Role)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB  *sql.DB
	DSN string // para LISTEN/NOTIFY; solo aplica con DB

	Alerts alerts.Publisher  // puede ser nil (sin canal de emergencias)
	Media  media.Store       // puede ser nil (uploads deshabilitados)
	Login  animals.LoginFunc // puede ser nil (login deshabilitado)

	// BaseContext acota la vida del changefeed en background: al
	// cancelarlo se cierra la suscripción (y la conexión LISTEN).
	// nil = context.Background().
	BaseContext context.Context

	Log logger.Logger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logger.New(logger.Options{App: "paws-api"})
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics())

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/swagger/doc.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(openapiSpec)
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	dsn := opts.DSN
	if db == nil {
		if envDSN := os.Getenv("DB_DSN"); envDSN != "" {
			opened, err := pg.Open(envDSN)
			if err == nil {
				db = opened
				dsn = envDSN
			}
		}
	}

	var (
		repo animals.Repository
		sub  changefeed.Subscriber
	)
	if db != nil {
		repo = pg.NewAnimalsRepo(db)
		if dsn != "" {
			sub = pg.NewListener(dsn, log)
		}
	} else {
		memRepo := mem.NewAnimalsRepo()
		repo = memRepo
		sub = memRepo
	}

	svc := animals.NewService(repo, opts.Alerts, log)
	ref := animals.NewRefresher(repo)

	// El changefeed mantiene el dashboard tibio: cada cambio en el store
	// dispara un refresh en background. Las emergencias que detecte quedan
	// en el buffer del refresher hasta que el dashboard las drene; la
	// alerta SMS se publica al crear el reporte, no acá.
	if sub != nil {
		baseCtx := opts.BaseContext
		if baseCtx == nil {
			baseCtx = context.Background()
		}
		go followChanges(baseCtx, sub, ref, log)
	}

	animals.RegisterRoutes(r, svc, ref, opts.Login, opts.Media)

	return r
}

func followChanges(ctx context.Context, sub changefeed.Subscriber, ref *animals.Refresher, log logger.Logger) {
	ch, err := sub.Subscribe(ctx)
	if err != nil {
		log.Warn("changefeed unavailable", map[string]any{"error": err.Error()})
		return
	}

	for range ch {
		if _, err := ref.Refresh(ctx); err != nil {
			log.Warn("background refresh failed", map[string]any{"error": err.Error()})
		}
	}
}
