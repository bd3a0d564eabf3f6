package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-ticket-payments.git/internal/ledger"
	"github.com/ariefcatur/go-ticket-payments.git/internal/orders"
	"github.com/ariefcatur/go-ticket-payments.git/internal/payfast"
	"github.com/ariefcatur/go-ticket-payments.git/internal/payments"
	"github.com/ariefcatur/go-ticket-payments.git/internal/redisx"
)

type PaymentsHandler struct {
	Engine  *payments.Engine
	Gateway *payfast.Client
	Queries *ledger.Queries
	Redis   *redis.Client
}

func (h *PaymentsHandler) Register(r *chi.Mux) {
	r.Post("/orders/{orderID}/initiate-payment", h.initiate)
	r.Post("/payments/callback", h.callback)
	r.Get("/payments/{orderID}/status", h.status)
	r.Get("/payments/{orderID}/history", h.history)
	r.Get("/payments/{orderID}/gateway-status", h.gatewayStatus)
	r.Get("/payments", h.list)
	r.Post("/payments/retry", h.retry)
	r.Delete("/payments/{orderID}", h.cancel)
}

func (h *PaymentsHandler) initiate(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	req, err := h.Engine.Initiate(ctx, orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// callback is the gateway-facing webhook. Acknowledgement policy: a payload
// missing required fields gets a 400 so the gateway stops retrying a
// malformed delivery. Every outcome after the payload parses (invalid
// signature, unknown order, rejected transition) gets a plain 200 "OK" so
// retries stop. Internal detail never leaks to the gateway.
func (h *PaymentsHandler) callback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	cb, err := payments.ParseCallback(r.PostForm)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := h.Engine.HandleCallback(ctx, cb)
	switch {
	case err == nil:
		redisx.CacheOrderStatus(ctx, h.Redis, res.OrderID, string(res.OrderStatus))
	case errors.Is(err, orders.ErrNotFound):
		// audit record is written; nothing more to reconcile
		log.Printf("callback for unknown order %s", cb.OrderID)
	default:
		log.Printf("callback %s: %v", cb.OrderID, err)
		http.Error(w, "error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *PaymentsHandler) status(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cache fast path
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	st, err := h.Queries.OrderStatus(ctx, orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	redisx.CacheOrderStatus(ctx, h.Redis, orderID, string(st))
	writeJSON(w, http.StatusOK, map[string]string{"order_id": orderID, "status": string(st)})
}

func (h *PaymentsHandler) history(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	recs, err := h.Queries.PaymentHistory(ctx, orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order_id": orderID, "payments": recs})
}

func (h *PaymentsHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	recs, pg, err := h.Queries.ListPayments(ctx, ledger.PaymentsFilter{
		OrderID: q.Get("order_id"),
		Status:  payments.RecordStatus(q.Get("status")),
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"payments":   recs,
		"pagination": pg,
	})
}

// gatewayStatus polls the provider directly. Read-only: reconciliation still
// happens only through callbacks.
func (h *PaymentsHandler) gatewayStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	st, err := h.Gateway.TransactionStatus(ctx, orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type retryReq struct {
	OrderID string `json:"order_id"`
}

func (h *PaymentsHandler) retry(w http.ResponseWriter, r *http.Request) {
	var req retryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "validation", "order_id required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	payReq, err := h.Engine.Retry(ctx, req.OrderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	redisx.CacheOrderStatus(ctx, h.Redis, req.OrderID, string(orders.StatusPending))
	writeJSON(w, http.StatusOK, payReq)
}

func (h *PaymentsHandler) cancel(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	st, err := h.Engine.Cancel(ctx, orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	redisx.CacheOrderStatus(ctx, h.Redis, orderID, string(st))
	writeJSON(w, http.StatusOK, map[string]string{"order_id": orderID, "status": string(st)})
}
