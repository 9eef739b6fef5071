package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"ronda-app-go/internal/config"
	"ronda-app-go/internal/transport/httpserver/handler"
	"ronda-app-go/internal/transport/httpserver/middleware"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.NewCORS(cfg.CORS.AllowedOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.Get("/contratos", handlers.ListContratos)
		r.Post("/contratos", handlers.CreateContrato)

		r.Route("/contratos/{contrato_id}", func(r chi.Router) {
			r.Use(middleware.InvalidateOnWrite("contrato_id", handlers.Dashboard.Invalidate))

			r.Get("/", handlers.GetContrato)
			r.Patch("/", handlers.UpdateContrato)
			r.Delete("/", handlers.DeleteContrato)

			r.Get("/rondas", handlers.ListRondas)
			r.Post("/rondas", handlers.CreateRonda)
			r.Get("/rondas/{ronda_id}", handlers.GetRonda)
			r.Patch("/rondas/{ronda_id}", handlers.UpdateRonda)
			r.Delete("/rondas/{ronda_id}", handlers.DeleteRonda)

			r.Get("/rondas/{ronda_id}/areas", handlers.ListAreas)
			r.Post("/rondas/{ronda_id}/areas", handlers.CreateArea)
			r.Patch("/areas/{area_id}", handlers.UpdateArea)
			r.Delete("/areas/{area_id}", handlers.DeleteArea)

			r.Get("/rondas/{ronda_id}/itens", handlers.ListItens)
			r.Post("/rondas/{ronda_id}/itens", handlers.CreateItem)
			r.Patch("/itens/{item_id}", handlers.UpdateItem)
			r.Delete("/itens/{item_id}", handlers.DeleteItem)

			r.Get("/agenda", handlers.ListAgenda)
			r.Post("/agenda", handlers.CreateAgendaItem)
			r.Get("/agenda/occurrences", handlers.ListOccurrences)
			r.Get("/agenda/{agenda_id}", handlers.GetAgendaItem)
			r.Patch("/agenda/{agenda_id}", handlers.UpdateAgendaItem)
			r.Delete("/agenda/{agenda_id}", handlers.DeleteAgendaItem)
			r.Post("/agenda/{agenda_id}/exclusions", handlers.AddAgendaExclusion)

			r.Get("/dashboard", handlers.DashboardSummary)
			r.Get("/dashboard/timeseries", handlers.DashboardTimeseries)

			if cfg.Sync.Enabled {
				r.Post("/sync", handlers.SyncBatch)
			}
		})
	})

	return r
}
