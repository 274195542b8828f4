// internal/api/handler/respond.go
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"cardledger/internal/api/types"
	"cardledger/internal/domain"
	"cardledger/internal/util"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 15 * time.Second

// PersistenceWarning is attached to successful responses whose snapshot write failed.
const PersistenceWarning = "change applied but not yet saved; it will be written by the next save"

// errorStatus maps each sentinel to its HTTP status. The response message is
// the sentinel's own text, so every rejection reason stays distinct.
var errorStatus = []struct {
	err    error
	status int
}{
	{util.ErrInvalidAmount, http.StatusBadRequest},
	{util.ErrInvalidCardID, http.StatusBadRequest},
	{util.ErrInvalidOwner, http.StatusBadRequest},
	{util.ErrInvalidSkin, http.StatusBadRequest},
	{util.ErrSelfTransfer, http.StatusBadRequest},
	{util.ErrCardNotFound, http.StatusNotFound},
	{util.ErrUnknownSkin, http.StatusNotFound},
	{util.ErrSkinNotOwned, http.StatusNotFound},
	{util.ErrInsufficientFunds, http.StatusPaymentRequired},
	{util.ErrBalanceOverflow, http.StatusUnprocessableEntity},
	{util.ErrAlreadyExists, http.StatusConflict},
	{util.ErrSkinAlreadyOwned, http.StatusConflict},
	{util.ErrCardNotEmpty, http.StatusConflict},
	{util.ErrCooldownActive, http.StatusTooManyRequests},
	{util.ErrIDExhausted, http.StatusServiceUnavailable},
}

// errInvalidBody is reported when the request body is not valid JSON.
var errInvalidBody = errors.New("invalid request body")

// responder holds the JSON helpers shared by all handlers.
type responder struct {
	logger *slog.Logger
}

func (h responder) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func (h responder) respondWithError(w http.ResponseWriter, err error) {
	if errors.Is(err, errInvalidBody) {
		h.respondWithJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: errInvalidBody.Error()})
		return
	}

	for _, m := range errorStatus {
		if !util.IsError(err, m.err) {
			continue
		}
		resp := types.ErrorResponse{Error: m.err.Error()}
		var cooldown *util.CooldownError
		if errors.As(err, &cooldown) {
			resp.RemainingSeconds = int64(cooldown.Remaining.Round(time.Second) / time.Second)
			resp.Remaining = domain.FormatRemaining(cooldown.Remaining)
		}
		h.respondWithJSON(w, m.status, resp)
		return
	}

	h.logger.Error("Unhandled service error", "error", err)
	h.respondWithJSON(w, http.StatusInternalServerError, types.ErrorResponse{Error: "internal server error"})
}

// respondWithResult sends payload for a mutation. A persistence failure still
// reports success, with a warning; any other error is rejected.
func (h responder) respondWithResult(w http.ResponseWriter, code int, payload map[string]any, err error) {
	if err != nil {
		if !util.IsPersistenceError(err) {
			h.respondWithError(w, err)
			return
		}
		h.logger.Error("Mutation applied but snapshot write failed", "error", err)
		payload["warning"] = PersistenceWarning
	}
	h.respondWithJSON(w, code, payload)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errInvalidBody
	}
	return nil
}
