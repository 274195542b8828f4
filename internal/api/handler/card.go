// internal/api/handler/card.go
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"cardledger/internal/api/types"
	"cardledger/internal/domain"
	"cardledger/internal/service"
	"cardledger/internal/util"
)

// CardHandler handles HTTP requests for cards, transfers and cooldowns.
type CardHandler struct {
	responder
	service service.LedgerService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(svc service.LedgerService, logger *slog.Logger) *CardHandler {
	return &CardHandler{
		responder: responder{logger: logger},
		service:   svc,
	}
}

func cardIDParam(r *http.Request) (string, error) {
	return domain.NormalizeCardID(chi.URLParam(r, "cardID"))
}

// CreateCardRequest represents the request body for card creation.
type CreateCardRequest struct {
	OwnerID        string `json:"owner_id"`
	OwnerName      string `json:"owner_name"`
	BypassCooldown bool   `json:"bypass_cooldown"`
}

// CreateCard issues a new card with a generated id.
// POST /cards
func (h *CardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req CreateCardRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	card, err := h.service.CreateCard(r.Context(), req.OwnerID, req.OwnerName, req.BypassCooldown)
	h.respondWithResult(w, http.StatusCreated, map[string]any{
		"message": "Card created",
		"card":    types.NewCardResponse(card),
	}, err)
}

// FabricateCardRequest represents the request body for creating a card with a chosen id.
type FabricateCardRequest struct {
	OwnerID   string `json:"owner_id"`
	OwnerName string `json:"owner_name"`
	CardID    string `json:"card_id"`
}

// FabricateCard creates a card with a caller-chosen id, skipping the cooldown.
// POST /cards/fabricate
func (h *CardHandler) FabricateCard(w http.ResponseWriter, r *http.Request) {
	var req FabricateCardRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	card, err := h.service.CreateCardWithID(r.Context(), req.OwnerID, req.OwnerName, req.CardID)
	h.respondWithResult(w, http.StatusCreated, map[string]any{
		"message": "Card fabricated",
		"card":    types.NewCardResponse(card),
	}, err)
}

// GetCard returns a card without touching it.
// GET /cards/{cardID}
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	id, err := cardIDParam(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	card, ok := h.service.Get(id)
	if !ok {
		h.respondWithError(w, util.ErrCardNotFound)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewCardResponse(card))
}

// TouchRequest optionally refreshes the cached owner name.
type TouchRequest struct {
	OwnerName string `json:"owner_name"`
}

// TouchCard marks a card as used, e.g. when its balance is displayed.
// POST /cards/{cardID}/touch
func (h *CardHandler) TouchCard(w http.ResponseWriter, r *http.Request) {
	id, err := cardIDParam(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	var req TouchRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.respondWithError(w, err)
			return
		}
	}

	card, err := h.service.Touch(r.Context(), id, req.OwnerName)
	h.respondWithResult(w, http.StatusOK, map[string]any{
		"card": types.NewCardResponse(card),
	}, err)
}

// AmountRequest represents the request body for deposit and withdraw.
// Amount accepts a JSON number or string and must be a positive whole number.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Deposit credits a card.
// POST /cards/{cardID}/deposit
func (h *CardHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	id, amount, err := h.amountRequest(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	card, err := h.service.Deposit(r.Context(), id, amount)
	h.respondWithResult(w, http.StatusOK, map[string]any{
		"message":     "Deposit successful",
		"card_id":     card.ID,
		"new_balance": card.Balance,
	}, err)
}

// Withdraw debits a card.
// POST /cards/{cardID}/withdraw
func (h *CardHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, amount, err := h.amountRequest(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	card, err := h.service.Withdraw(r.Context(), id, amount)
	h.respondWithResult(w, http.StatusOK, map[string]any{
		"message":     "Withdrawal successful",
		"card_id":     card.ID,
		"new_balance": card.Balance,
	}, err)
}

func (h *CardHandler) amountRequest(r *http.Request) (string, int64, error) {
	id, err := cardIDParam(r)
	if err != nil {
		return "", 0, err
	}
	var req AmountRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", 0, err
	}
	amount, err := domain.AmountFromDecimal(req.Amount)
	if err != nil {
		return "", 0, err
	}
	return id, amount, nil
}

// DestroyCard removes a card; its id is never issued again.
// DELETE /cards/{cardID}
func (h *CardHandler) DestroyCard(w http.ResponseWriter, r *http.Request) {
	id, err := cardIDParam(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	card, err := h.service.Destroy(r.Context(), id)
	h.respondWithResult(w, http.StatusOK, map[string]any{
		"message": "Card destroyed",
		"card":    types.NewCardResponse(card),
	}, err)
}

// IsOwner reports whether the owner holds the card.
// GET /cards/{cardID}/owner/{ownerID}
func (h *CardHandler) IsOwner(w http.ResponseWriter, r *http.Request) {
	id, err := cardIDParam(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]any{
		"card_id":  id,
		"is_owner": h.service.IsOwner(chi.URLParam(r, "ownerID"), id),
	})
}

// UsedIDs lists every id ever issued, including destroyed cards.
// GET /cards/used-ids
func (h *CardHandler) UsedIDs(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, types.NewListResponse(h.service.UsedIDs()))
}

// ListOwnerCards lists the owner's live cards.
// GET /owners/{ownerID}/cards
func (h *CardHandler) ListOwnerCards(w http.ResponseWriter, r *http.Request) {
	owner, err := domain.NormalizeOwnerID(chi.URLParam(r, "ownerID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewCardList(h.service.ListByOwner(owner)))
}

// TransferRequest represents the request body for transfer.
type TransferRequest struct {
	FromCardID string          `json:"from_card_id"`
	ToCardID   string          `json:"to_card_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// Transfer moves money between two cards atomically.
// POST /transfers
func (h *CardHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	amount, err := domain.AmountFromDecimal(req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	from, err := domain.NormalizeCardID(req.FromCardID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	to, err := domain.NormalizeCardID(req.ToCardID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	fromCard, toCard, err := h.service.Transfer(r.Context(), from, to, amount)
	h.respondWithResult(w, http.StatusOK, map[string]any{
		"message":               "Transfer successful",
		"from_card_id":          fromCard.ID,
		"to_card_id":            toCard.ID,
		"from_card_new_balance": fromCard.Balance,
		"to_card_new_balance":   toCard.Balance,
	}, err)
}

// GetCooldown reports the owner's card creation cooldown.
// GET /cooldowns/{ownerID}
func (h *CardHandler) GetCooldown(w http.ResponseWriter, r *http.Request) {
	owner, err := domain.NormalizeOwnerID(chi.URLParam(r, "ownerID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	remaining := h.service.CooldownRemaining(owner)
	h.respondWithJSON(w, http.StatusOK, map[string]any{
		"owner_id":          owner,
		"active":            remaining > 0,
		"remaining_seconds": int64(remaining.Round(time.Second) / time.Second),
		"remaining":         domain.FormatRemaining(remaining),
	})
}

// SetCooldownRequest sets an absolute expiry, or one relative to now.
type SetCooldownRequest struct {
	ExpiresAt *time.Time `json:"expires_at"`
	Seconds   *int64     `json:"seconds"`
}

// SetCooldown overwrites the owner's cooldown.
// PUT /cooldowns/{ownerID}
func (h *CardHandler) SetCooldown(w http.ResponseWriter, r *http.Request) {
	var req SetCooldownRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	var expiresAt time.Time
	switch {
	case req.ExpiresAt != nil:
		expiresAt = *req.ExpiresAt
	case req.Seconds != nil:
		expiresAt = time.Now().Add(time.Duration(*req.Seconds) * time.Second)
	default:
		h.respondWithError(w, errInvalidBody)
		return
	}

	err := h.service.SetCooldown(r.Context(), chi.URLParam(r, "ownerID"), expiresAt)
	h.respondWithResult(w, http.StatusOK, map[string]any{
		"message":    "Cooldown updated",
		"expires_at": expiresAt,
	}, err)
}
