package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/authcore/authcore/internal/api/handler"
	"github.com/authcore/authcore/internal/api/middleware"
	"github.com/authcore/authcore/internal/auth"
	"github.com/authcore/authcore/internal/organization"
	"github.com/authcore/authcore/internal/policy"
	"github.com/authcore/authcore/internal/team"
	"github.com/authcore/authcore/internal/user"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger    handler.DBPinger
	Version     string
	AuthService *auth.Service
	Engine      team.Engine
	Orgs        organization.Repository
	Policies    policy.Repository
	Users       user.Repository
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	r.Route("/authorization", func(r chi.Router) {
		if deps.AuthService != nil {
			r.Use(middleware.Auth(deps.AuthService))
		}

		if deps.Orgs != nil {
			orgHandler := handler.NewOrganizationHandler(deps.Orgs)
			r.Route("/organizations", func(r chi.Router) {
				r.Get("/", orgHandler.List)
				r.Get("/{id}", orgHandler.Get)

				r.Group(func(r chi.Router) {
					if deps.AuthService != nil {
						r.Use(middleware.RequireAdmin())
					}
					r.Post("/", orgHandler.Create)
					r.Delete("/{id}", orgHandler.Delete)
				})
			})
		}

		if deps.Engine != nil {
			teamHandler := handler.NewTeamHandler(deps.Engine)
			r.Route("/teams", func(r chi.Router) {
				r.Post("/", teamHandler.Create)
				r.Get("/", teamHandler.List)
				r.Get("/{id}", teamHandler.Get)
				r.Patch("/{id}", teamHandler.Update)
				r.Delete("/{id}", teamHandler.Delete)
				r.Put("/{id}/parent", teamHandler.Move)

				r.Post("/{id}/policies", teamHandler.ReplacePolicies)
				r.Patch("/{id}/policies", teamHandler.AddPolicies)
				r.Delete("/{id}/policies", teamHandler.ClearPolicies)
				r.Delete("/{id}/policies/{policyId}", teamHandler.RemovePolicy)
			})
		}

		if deps.Policies != nil {
			policyHandler := handler.NewPolicyHandler(deps.Policies)
			r.Route("/policies", func(r chi.Router) {
				r.Post("/", policyHandler.Create)
				r.Get("/", policyHandler.List)
				r.Get("/{id}", policyHandler.Get)
				r.Delete("/{id}", policyHandler.Delete)
			})
		}

		if deps.Users != nil {
			userHandler := handler.NewUserHandler(deps.Users)
			r.Route("/users", func(r chi.Router) {
				r.Post("/", userHandler.Create)
				r.Get("/", userHandler.List)
				r.Get("/{id}", userHandler.Get)
				r.Delete("/{id}", userHandler.Delete)
			})
		}
	})

	return r
}
