package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the registry API under /api.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.Login)
		// Guard self-registration is public; staff registration checks the token itself.
		r.Post("/auth/register", s.Register)

		r.Group(func(r chi.Router) {
			r.Use(NewAuthMiddleware(s.tokens))

			r.Get("/vehicles", s.ListVehicles)
			r.Post("/vehicles", s.CreateVehicle)
			r.Get("/vehicles/search", s.SearchVehicles)
			r.Get("/vehicles/{id}", s.GetVehicle)
			r.Put("/vehicles/{id}", s.UpdateVehicle)
			r.Delete("/vehicles/{id}", s.DeleteVehicle)

			r.Get("/admins", s.ListAdmins)
			r.Delete("/admins/{id}", s.DeleteAdmin)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "Route not found")
	})
	return r
}
