package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterOptions carries the pluggable middleware pieces.
type RouterOptions struct {
	// AuthMiddleware guards every route except the health endpoint. Nil
	// leaves the API open (tests, trusted networks).
	AuthMiddleware func(http.Handler) http.Handler
	// RequestLogger, when set, logs one line per request.
	RequestLogger func(http.Handler) http.Handler
}

// NewRouter constructs the API HTTP router.
//
// This is intentionally a thin adapter: it wires routes and middleware and
// delegates to the Server handlers.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if opts.RequestLogger != nil {
		r.Use(opts.RequestLogger)
	}

	// Health endpoint is deliberately unauthenticated (used for infra checks).
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		if opts.AuthMiddleware != nil {
			r.Use(opts.AuthMiddleware)
		}

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/search", s.searchProfiles)
			r.Get("/{profileID}", s.getProfile)
			r.Patch("/{profileID}", s.patchProfile)
			r.Delete("/{profileID}", s.deleteProfile)
		})

		r.Route("/individuals", func(r chi.Router) {
			r.Post("/", s.createIndividual)
			r.Get("/", s.listIndividuals)
			r.Get("/tags", s.individualTags)
			r.Get("/{profileID}", s.getIndividual)
			r.Patch("/{profileID}", s.patchIndividual)
			r.Delete("/{profileID}", s.deleteIndividual)
		})

		r.Route("/organizations", func(r chi.Router) {
			r.Post("/", s.createOrganization)
			r.Get("/", s.listOrganizations)
			r.Get("/tags", s.organizationTags)
			r.Get("/{profileID}", s.getOrganization)
			r.Patch("/{profileID}", s.patchOrganization)
			r.Delete("/{profileID}", s.deleteOrganization)
		})

		r.Route("/venues", func(r chi.Router) {
			r.Post("/", s.createVenue)
			r.Get("/", s.listVenues)
			r.Get("/nearby", s.nearbyVenues)
			r.Get("/{profileID}", s.getVenue)
			r.Patch("/{profileID}", s.patchVenue)
			r.Delete("/{profileID}", s.deleteVenue)
		})

		r.Route("/images", func(r chi.Router) {
			r.Post("/upload-slots", s.createUploadSlot)
			r.Post("/", s.confirmImage)
			r.Get("/{imageID}", s.getImage)
			r.Delete("/{imageID}", s.deleteImage)
		})
	})

	return r
}
