package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"inventorycore/internal/core"
	"inventorycore/internal/infra/idempotency"
)

const (
	headerIdempotencyKey   = "Idempotency-Key"
	headerIdempotentReplay = "Idempotent-Replay"
)

type produceResponse struct {
	Status string `json:"status"`
	core.ProductionResult
}

func (h *Handler) produce(c echo.Context) error {
	productID, ok := pathID(c, "productId")
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "Invalid product id"})
	}
	quantity, err := strconv.ParseInt(c.Param("quantity"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "Invalid quantity"})
	}

	key := c.Request().Header.Get(headerIdempotencyKey)
	if key == "" || h.opts.Idempotency == nil {
		status, body := h.runProduce(c.Request().Context(), productID, quantity)
		return c.JSON(status, body)
	}
	return h.produceOnce(c, "produce:"+key, productID, quantity)
}

// produceOnce executes a produce request at most once per idempotency key.
// Successful responses are stored and replayed; failures free the key.
func (h *Handler) produceOnce(c echo.Context, key string, productID, quantity int64) error {
	ctx := c.Request().Context()
	store := h.opts.Idempotency

	stored, replay, err := store.Begin(ctx, key)
	switch {
	case errors.Is(err, idempotency.ErrInFlight):
		return c.JSON(http.StatusConflict, map[string]any{"error": "A request with this Idempotency-Key is still in progress"})
	case err != nil:
		h.opts.Logger.Error().Err(err).Str("key", key).Msg("idempotency store unavailable")
		return c.JSON(http.StatusServiceUnavailable, map[string]any{"error": "idempotency store unavailable"})
	case replay:
		c.Response().Header().Set(headerIdempotentReplay, "true")
		return c.JSONBlob(stored.Status, stored.Body)
	}

	status, body := h.runProduce(ctx, productID, quantity)
	detached := context.WithoutCancel(ctx)
	if status != http.StatusOK {
		if err := store.Release(detached, key); err != nil {
			h.opts.Logger.Warn().Err(err).Str("key", key).Msg("release idempotency key")
		}
		return c.JSON(status, body)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return h.writeError(c, err)
	}
	if err := store.Complete(detached, key, idempotency.Response{Status: status, Body: data}); err != nil {
		h.opts.Logger.Warn().Err(err).Str("key", key).Msg("store idempotent response")
	}
	return c.JSONBlob(status, data)
}

func (h *Handler) runProduce(ctx context.Context, productID, quantity int64) (int, any) {
	result, _, err := h.svc.Produce(ctx, productID, quantity)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.opts.Logger.Error().Err(err).Int64("product_id", productID).Msg("produce failed")
		}
		return status, productionErrorBody(err)
	}
	return http.StatusOK, produceResponse{Status: "SUCCESS", ProductionResult: result}
}

func (h *Handler) productionCheck(c echo.Context) error {
	rows, err := h.svc.ComputeAllFeasibility(c.Request().Context())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *Handler) productionPriority(c echo.Context) error {
	rows, err := h.svc.ComputePriority(c.Request().Context())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}
