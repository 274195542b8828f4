// internal/api/handler/skin.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cardledger/internal/api/types"
	"cardledger/internal/service"
)

// SkinHandler handles HTTP requests for cosmetic skins.
type SkinHandler struct {
	responder
	service service.SkinService
}

// NewSkinHandler creates a new SkinHandler.
func NewSkinHandler(svc service.SkinService, logger *slog.Logger) *SkinHandler {
	return &SkinHandler{
		responder: responder{logger: logger},
		service:   svc,
	}
}

// Catalog lists the configured skins.
// GET /skins
func (h *SkinHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]any{"catalog": h.service.Catalog()})
}

// GetAvailable lists the skins an owner has unlocked.
// GET /skins/{ownerID}
func (h *SkinHandler) GetAvailable(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, types.NewListResponse(h.service.GetAvailable(chi.URLParam(r, "ownerID"))))
}

// AddSkinRequest unlocks one skin, or the whole catalog when All is set.
type AddSkinRequest struct {
	SkinID    string `json:"skin_id"`
	OwnerName string `json:"owner_name"`
	All       bool   `json:"all"`
}

// AddSkin unlocks skins for an owner.
// POST /skins/{ownerID}
func (h *SkinHandler) AddSkin(w http.ResponseWriter, r *http.Request) {
	var req AddSkinRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	owner := chi.URLParam(r, "ownerID")

	if req.All {
		added, err := h.service.AddAll(r.Context(), owner, req.OwnerName)
		h.respondWithResult(w, http.StatusOK, map[string]any{
			"message": "Skins unlocked",
			"added":   types.NewListResponse(added).Data,
		}, err)
		return
	}

	err := h.service.Add(r.Context(), owner, req.OwnerName, req.SkinID)
	h.respondWithResult(w, http.StatusCreated, map[string]any{
		"message": "Skin unlocked",
		"skin_id": req.SkinID,
	}, err)
}

// RemoveSkin locks a skin again.
// DELETE /skins/{ownerID}/{skinID}
func (h *SkinHandler) RemoveSkin(w http.ResponseWriter, r *http.Request) {
	err := h.service.Remove(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "skinID"))
	h.respondWithResult(w, http.StatusOK, map[string]any{
		"message": "Skin removed",
	}, err)
}
