package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/go-trip-companion/internal/api"
	"github.com/FACorreiaa/go-trip-companion/internal/container"
)

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are applied before
// mounting this router in main.go.
func SetupRouter(c *container.Container) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Every route needs a caller identity. The gateway in front of this
		// service authenticates the user and forwards the ID in a header.
		r.Use(api.RequireUserID)

		r.Route("/places", func(r chi.Router) {
			r.Post("/", c.PlaceHandler.CreatePlace)
			r.Put("/{placeID}", c.PlaceHandler.UpdatePlace)
			r.Post("/{placeID}/visited", c.PlaceHandler.MarkVisited)
		})

		r.Route("/trips/{tripID}", func(r chi.Router) {
			r.Get("/places", c.PlaceHandler.GetTripPlaces)
			r.Get("/context", c.ContextHandler.GetTripContext)
			r.Post("/recommendations/rank", c.RecommendHandler.RankPlaces)
			r.Post("/recommendations/alternatives", c.AlternativesHandler.FindAlternatives)
		})

		r.Post("/location", c.NotificationsHandler.UpdateLocation)

		r.Route("/notifications/preferences", func(r chi.Router) {
			r.Get("/", c.NotificationsHandler.GetPreferences)
			r.Put("/", c.NotificationsHandler.UpdatePreferences)
		})
	})

	return r
}
