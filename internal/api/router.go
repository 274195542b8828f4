// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cardledger/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(cardHandler *handler.CardHandler, skinHandler *handler.SkinHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/cards", func(r chi.Router) {
		r.Post("/", cardHandler.CreateCard)
		r.Post("/fabricate", cardHandler.FabricateCard)
		r.Get("/used-ids", cardHandler.UsedIDs)
		r.Route("/{cardID}", func(r chi.Router) {
			r.Get("/", cardHandler.GetCard)
			r.Delete("/", cardHandler.DestroyCard)
			r.Post("/touch", cardHandler.TouchCard)
			r.Post("/deposit", cardHandler.Deposit)
			r.Post("/withdraw", cardHandler.Withdraw)
			r.Get("/owner/{ownerID}", cardHandler.IsOwner)
		})
	})
	r.Get("/owners/{ownerID}/cards", cardHandler.ListOwnerCards)

	// Transfer is a separate top-level endpoint as it involves two cards
	r.Post("/transfers", cardHandler.Transfer)

	r.Route("/cooldowns/{ownerID}", func(r chi.Router) {
		r.Get("/", cardHandler.GetCooldown)
		r.Put("/", cardHandler.SetCooldown)
	})

	r.Route("/skins", func(r chi.Router) {
		r.Get("/", skinHandler.Catalog)
		r.Get("/{ownerID}", skinHandler.GetAvailable)
		r.Post("/{ownerID}", skinHandler.AddSkin)
		r.Delete("/{ownerID}/{skinID}", skinHandler.RemoveSkin)
	})

	logger.Debug("HTTP routes registered")
	return r
}
