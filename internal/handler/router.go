package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	custommiddleware "github.com/mmeshcher/silkroad-booking/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса бронирования.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Encoding"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(custommiddleware.BearerToken)

	r.Route("/api", func(r chi.Router) {
		r.Route("/wizards", func(r chi.Router) {
			r.Post("/", h.OpenWizard)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetWizard)
				r.Delete("/", h.CloseWizard)

				r.Post("/search", h.Search)
				r.Put("/selection/{lineID}", h.SetQuantity)
				r.Post("/proceed", h.Proceed)
				r.Patch("/guest", h.EditGuest)
				r.Post("/guest", h.SubmitGuest)
				r.Post("/card", h.SubmitCard)
				r.Post("/code", h.SubmitCode)
				r.Post("/back", h.Back)
			})
		})

		r.Get("/orders", h.ListOrders)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
