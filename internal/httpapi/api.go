package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"gcghub.id/internal/auth"
	"gcghub.id/internal/obs"
	"gcghub.id/internal/store"
)

// API is the HTTP layer. The persistence store, token service and
// password hasher are injected so tests can substitute fakes.
type API struct {
	store   store.Store
	tokens  *auth.TokenService
	hasher  auth.Hasher
	version string

	corsOrigins []string
}

// Option configures API construction.
type Option func(*API)

// WithCORSOrigins sets the allowed cross-origin hosts.
func WithCORSOrigins(origins []string) Option {
	return func(a *API) { a.corsOrigins = origins }
}

// New constructs the API.
func New(st store.Store, tokens *auth.TokenService, hasher auth.Hasher, version string, opts ...Option) *API {
	a := &API{
		store:   st,
		tokens:  tokens,
		hasher:  hasher,
		version: version,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler builds the full middleware chain and route table.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logging)
	r.Use(Recover)
	r.Use(SecurityHeaders)

	origins := a.corsOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           600,
	}))

	r.Use(MaxBodyBytes(1 << 20))
	r.Use(RateLimit(20, 10))

	r.Get("/healthz", a.Healthz)
	r.Get("/readyz", a.Ready)
	r.Handle("/metrics", obs.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", a.handleRegister)
		r.Post("/login", a.handleLogin)
		r.Post("/refresh", a.handleRefresh)
		r.With(a.OptionalAuthenticate).Get("/session", a.handleSession)

		r.Group(func(r chi.Router) {
			r.Use(a.Authenticate)
			r.Post("/logout", a.handleLogout)
			r.Get("/profile", a.handleProfile)
			r.Put("/change-password", a.handleChangePassword)
		})
	})

	r.Route("/api/documents", func(r chi.Router) {
		r.Use(a.Authenticate)
		r.Get("/", a.handleListDocuments)

		r.Route("/{id}", func(r chi.Router) {
			r.Use(a.DocumentAccess)
			r.Get("/", a.handleGetDocument)
			r.Put("/", a.handleUpdateDocument)
			r.With(RequireAdmin).Delete("/", a.handleDeleteDocument)
		})
	})

	r.Route("/api/direktorat/{direktoratId}", func(r chi.Router) {
		r.Use(a.Authenticate)
		r.Use(a.DirektoratAccess)
		r.Get("/documents", a.handleListDirektoratDocuments)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "Route "+req.URL.Path+" not found")
	})

	return obs.Instrument(r, func(req *http.Request) string {
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			return rctx.RoutePattern()
		}
		return ""
	})
}
