package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-ticket-payments.git/internal/ledger"
	"github.com/ariefcatur/go-ticket-payments.git/internal/orders"
	"github.com/ariefcatur/go-ticket-payments.git/internal/redisx"
)

type OrdersHandler struct {
	Repo    *orders.Repo
	Queries *ledger.Queries
	Redis   *redis.Client
}

type createOrderReq struct {
	ExternalRef string            `json:"external_ref,omitempty"`
	Customer    orders.Customer   `json:"customer"`
	LineItems   []orders.LineItem `json:"line_items"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
}

type createOrderResp struct {
	Order      *orders.Order `json:"order"`
	Idempotent bool          `json:"idempotent"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.create)
	r.Get("/orders", h.list)
	r.Get("/orders/{orderID}", h.get)
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid json")
		return
	}

	o, err := orders.New(req.Customer, req.LineItems, req.TotalAmount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	existed, err := h.Repo.Create(ctx, o, req.ExternalRef)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// idempotency shortcut + status cache; DB stays the source of truth
	if h.Redis != nil && req.ExternalRef != "" {
		key := fmt.Sprintf(redisx.KeyIdemOrderCreate, req.ExternalRef)
		_ = h.Redis.Set(ctx, key, o.OrderID, redisx.TTLIdempotency).Err()
	}
	redisx.CacheOrderStatus(ctx, h.Redis, o.OrderID, string(o.Status))

	writeJSON(w, http.StatusCreated, createOrderResp{Order: o, Idempotent: existed})
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Repo.Get(ctx, orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	status := orders.Status(r.URL.Query().Get("status"))
	if status != "" && !orders.ValidStatus(status) {
		writeError(w, http.StatusBadRequest, "validation", "unknown status filter")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, pg, err := h.Queries.ListOrders(ctx, status, page, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orders":     list,
		"pagination": pg,
	})
}
