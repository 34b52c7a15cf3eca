package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"inventorycore/internal/adapters/reports"
	"inventorycore/internal/blob"
	"inventorycore/internal/infra/idempotency"
	"inventorycore/pkg/domain"
)

func messageBody(msg string) map[string]string {
	return map[string]string{"message": msg}
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	var (
		notFound     domain.ErrNotFound
		dupKey       domain.DuplicateKeyError
		dupLink      domain.DuplicateLinkError
		linked       domain.LinkedInBomError
		invalidQty   domain.InvalidQuantityError
		validation   domain.ValidationError
		insufficient domain.InsufficientStockError
		blocked      domain.RuleViolationError
	)
	switch {
	case errors.As(err, &notFound), errors.Is(err, blob.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &dupKey), errors.As(err, &dupLink), errors.As(err, &linked), errors.As(err, &blocked),
		errors.Is(err, idempotency.ErrInFlight):
		return http.StatusConflict
	case errors.As(err, &invalidQty), errors.As(err, &validation), errors.As(err, &insufficient),
		errors.Is(err, reports.ErrUnknownKind), errors.Is(err, reports.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err in the {"message": ...} convention used by the
// catalog routes. Unclassified errors are logged and hidden.
func (h *Handler) writeError(c echo.Context, err error) error {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		h.opts.Logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		msg = "internal error"
	case http.StatusServiceUnavailable:
		msg = "request timed out"
	}
	return c.JSON(status, messageBody(msg))
}

// productionErrorBody renders produce failures in the {"error": ...}
// convention existing callers parse.
func productionErrorBody(err error) map[string]any {
	var insufficient domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		if insufficient.NoRecipe {
			return map[string]any{
				"error":       insufficient.Error(),
				"productId":   insufficient.ProductID,
				"productName": insufficient.ProductName,
			}
		}
		return map[string]any{
			"error":           "INSUFFICIENT_STOCK",
			"productId":       insufficient.ProductID,
			"productName":     insufficient.ProductName,
			"rawMaterialId":   insufficient.RawMaterialID,
			"rawMaterialCode": insufficient.RawMaterialCode,
			"rawMaterial":     insufficient.RawMaterial,
			"available":       insufficient.Available,
			"required":        insufficient.Required,
			"missing":         insufficient.Missing,
		}
	}
	switch statusFor(err) {
	case http.StatusInternalServerError:
		return map[string]any{"error": "internal error"}
	case http.StatusServiceUnavailable:
		return map[string]any{"error": "request timed out"}
	}
	return map[string]any{"error": err.Error()}
}
