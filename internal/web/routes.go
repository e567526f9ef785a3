package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/jsvoboda/facegate/internal/web/handlers"
)

func (s *Server) setupRoutes(deps Dependencies) {
	enrollHandler := handlers.NewEnrollHandler(deps.Enroller)
	verifyHandler := handlers.NewVerifyHandler(deps.Verifier)
	identifyHandler := handlers.NewIdentifyHandler(deps.Identifier)
	personsHandler := handlers.NewPersonsHandler(deps.Store)
	healthHandler := handlers.NewHealthHandler(deps.Config, deps.Store)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Get)

		r.Post("/persons", enrollHandler.Enroll)
		r.Get("/persons", personsHandler.List)
		r.Get("/persons/{documentID}", personsHandler.Get)

		r.Post("/verify", verifyHandler.Verify)
		r.Post("/identify", identifyHandler.Identify)
	})
}
