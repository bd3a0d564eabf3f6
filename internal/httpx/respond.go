package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-ticket-payments.git/internal/orders"
	"github.com/ariefcatur/go-ticket-payments.git/internal/payfast"
	"github.com/ariefcatur/go-ticket-payments.git/internal/payments"
)

type errBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, kind, msg string) {
	writeJSON(w, code, errBody{Error: msg, Kind: kind})
}

// writeDomainError maps domain sentinels onto the stable error kinds of the
// REST contract. Anything unexpected is a store problem and stays opaque.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrValidation),
		errors.Is(err, payments.ErrValidation),
		errors.Is(err, payfast.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, orders.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, payments.ErrInvalidTransition),
		errors.Is(err, payfast.ErrOrderNotPending):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, payfast.ErrGatewayUnavailable):
		writeError(w, http.StatusBadGateway, "gateway_unavailable", "payment gateway unavailable")
	case errors.Is(err, payfast.ErrMissingCredentials):
		writeError(w, http.StatusInternalServerError, "internal", "gateway not configured")
	default:
		writeError(w, http.StatusInternalServerError, "persistence", "internal error")
	}
}
