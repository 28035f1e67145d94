package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/auctiondesk/pkg/app"
	"github.com/ghuser/auctiondesk/pkg/auth"
	"github.com/ghuser/auctiondesk/services/auction/application/handlers"
	appsvcs "github.com/ghuser/auctiondesk/services/auction/application/services"
)

// Routes registers the auction endpoints on the provided chi router.
// Everything under /api requires an operator session; /auth/register and
// /auth/login are the only open endpoints.
func Routes(r chi.Router, a *app.Application, svcs *appsvcs.Services) {
	authHandler := handlers.NewAuthHandler(svcs, a.SessionStore, a.Logger)
	items := handlers.NewItemsHandler(svcs)
	bids := handlers.NewBidsHandler(svcs)
	attendees := handlers.NewAttendeesHandler(svcs)
	export := handlers.NewExportHandler(svcs, a.Logger)
	summary := handlers.NewSummaryHandler(svcs)
	admin := handlers.NewAdminHandler(svcs)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireOperator(a.SessionStore, svcs.Operators, a.Logger))
			r.Get("/me", authHandler.Me)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireOperator(a.SessionStore, svcs.Operators, a.Logger))

		r.Route("/items", func(r chi.Router) {
			r.Get("/", items.List)
			r.Post("/", items.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", items.Get)
				r.Put("/", items.Update)
				r.Delete("/", items.Delete)
				r.Route("/winning-bid", func(r chi.Router) {
					r.Post("/", bids.Record)
					r.Put("/", bids.Edit)
					r.Delete("/", bids.Clear)
				})
			})
		})

		r.Route("/attendees", func(r chi.Router) {
			r.Get("/", attendees.List)
			r.Post("/", attendees.Create)
			r.Route("/{bidNum}", func(r chi.Router) {
				r.Get("/", attendees.Get)
				r.Put("/", attendees.Update)
				r.Delete("/", attendees.Delete)
				r.Get("/receipt", attendees.Receipt)
			})
		})

		r.Get("/export", export.Export)
		r.Get("/summary", summary.Summary)
		r.Post("/admin/import-snapshot", admin.ImportSnapshot)
	})
}
