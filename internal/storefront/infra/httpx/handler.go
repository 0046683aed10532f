package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jcmexdev/storefront-preorders/internal/pkg/cache"
	"github.com/jcmexdev/storefront-preorders/internal/pkg/requestctx"
	"github.com/jcmexdev/storefront-preorders/internal/pkg/telemetry"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/ports"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/wire"
)

const (
	maxBodyBytes = 1 << 20

	// HeaderIdempotentReplay marks a response served from the idempotency cache.
	HeaderIdempotentReplay = "Idempotent-Replayed"

	opPlaceOrder = "place_order"
)

// Handler serves the order API.
type Handler struct {
	orders         ports.OrderService
	replays        cache.Cache
	idempotencyTTL time.Duration
}

// NewHandler builds a Handler. A nil replays cache disables idempotent replay.
func NewHandler(orders ports.OrderService, replays cache.Cache, idempotencyTTL time.Duration) *Handler {
	return &Handler{orders: orders, replays: replays, idempotencyTTL: idempotencyTTL}
}

// PlaceOrder validates, persists and confirms one order. A request that
// repeats an earlier X-Idempotency-Key gets the first response back.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	replayKey := h.replayKey(r)
	if replayKey != "" {
		cached, err := h.replays.Get(ctx, replayKey)
		if err != nil {
			slog.WarnContext(ctx, "idempotency lookup failed", "error", err)
		} else if cached != "" {
			slog.InfoContext(ctx, "replaying order response", "request_id", requestctx.RequestID(ctx))
			w.Header().Set(HeaderIdempotentReplay, "true")
			writeRaw(w, http.StatusOK, []byte(cached))
			return
		}
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	var req wire.PlaceOrderRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	order, err := h.place(ctx, req)
	if err != nil {
		var vErr *entity.ValidationError
		if errors.As(err, &vErr) {
			writeError(w, r, http.StatusBadRequest, "invalid_request", vErr.Error())
			return
		}
		slog.ErrorContext(ctx, "place order failed", "request_id", requestctx.RequestID(ctx), "error", err)
		writeError(w, r, http.StatusInternalServerError, "server_error", "Server error")
		return
	}
	h.writePlaced(w, r, replayKey, order)
}

func (h *Handler) place(ctx context.Context, req wire.PlaceOrderRequest) (entity.Order, error) {
	cmd, err := req.Command()
	if err != nil {
		return entity.Order{}, err
	}
	return h.orders.PlaceOrder(ctx, cmd)
}

func (h *Handler) writePlaced(w http.ResponseWriter, r *http.Request, replayKey string, order entity.Order) {
	ctx := r.Context()
	body, err := json.Marshal(wire.PlaceOrderResponse{Success: true, Order: wire.FromOrder(order)})
	if err != nil {
		// The order is already recorded; report it by id only.
		slog.ErrorContext(ctx, "encode order response", "order_id", order.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "server_error", "Server error")
		return
	}
	if replayKey != "" {
		if err := h.replays.Set(ctx, replayKey, body, h.idempotencyTTL); err != nil {
			slog.WarnContext(ctx, "idempotency store failed", "order_id", order.ID, "error", err)
		}
	}
	writeRaw(w, http.StatusOK, body)
}

// ListOrders returns recent orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit := ports.DefaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = n
	}

	orders, err := h.orders.ListRecent(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "list orders failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "store_unreadable", "Could not read orders")
		return
	}
	writeJSON(w, http.StatusOK, wire.ListOrdersResponse{Orders: wire.FromOrders(orders)})
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) replayKey(r *http.Request) string {
	if h.replays == nil {
		return ""
	}
	key := requestctx.IdempotencyKey(r.Context())
	if key == "" {
		return ""
	}
	return h.replays.GenerateKey(opPlaceOrder, key)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, status, wire.ErrorResponse{
		Error:   code,
		Message: msg,
		TraceID: telemetry.ExtractTraceInfo(r.Context()).TraceID,
	})
}
