package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"inventorycore/internal/core"
)

type entityRef struct {
	ID int64 `json:"id"`
}

// usageBody accepts flat ids or the nested {product:{id}, rawMaterial:{id}}
// form older UI builds post.
type usageBody struct {
	ProductID          *int64     `json:"productId"`
	RawMaterialID      *int64     `json:"rawMaterialId"`
	ConsumptionPerUnit *int64     `json:"consumptionPerUnit"`
	Product            *entityRef `json:"product"`
	RawMaterial        *entityRef `json:"rawMaterial"`
}

func (b usageBody) productID() int64 {
	switch {
	case b.ProductID != nil:
		return *b.ProductID
	case b.Product != nil:
		return b.Product.ID
	}
	return 0
}

func (b usageBody) rawMaterialID() int64 {
	switch {
	case b.RawMaterialID != nil:
		return *b.RawMaterialID
	case b.RawMaterial != nil:
		return b.RawMaterial.ID
	}
	return 0
}

func (b usageBody) consumption() int64 {
	if b.ConsumptionPerUnit == nil {
		return 0
	}
	return *b.ConsumptionPerUnit
}

func (h *Handler) listUsages(c echo.Context) error {
	usages, err := h.svc.ListUsageDetails(c.Request().Context())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, usages)
}

func (h *Handler) getUsage(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	u, err := h.svc.GetUsageDetail(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) listProductUsages(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	usages, err := h.svc.ListUsageDetailsForProduct(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, usages)
}

func (h *Handler) createUsage(c echo.Context) error {
	var body usageBody
	if err := c.Bind(&body); err != nil {
		return invalidPayload(c)
	}
	productID, rawMaterialID := body.productID(), body.rawMaterialID()
	switch {
	case productID <= 0:
		return c.JSON(http.StatusBadRequest, messageBody("Product id is required."))
	case rawMaterialID <= 0:
		return c.JSON(http.StatusBadRequest, messageBody("Raw material id is required."))
	}
	ctx := c.Request().Context()
	created, _, err := h.svc.CreateUsage(ctx, core.UsageInput{
		ProductID:          productID,
		RawMaterialID:      rawMaterialID,
		ConsumptionPerUnit: body.consumption(),
	})
	if err != nil {
		return h.writeError(c, err)
	}
	detail, err := h.svc.GetUsageDetail(ctx, created.ID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, detail)
}

func (h *Handler) updateUsage(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var body usageBody
	if err := c.Bind(&body); err != nil {
		return invalidPayload(c)
	}
	ctx := c.Request().Context()
	if _, _, err := h.svc.UpdateUsage(ctx, id, body.consumption()); err != nil {
		return h.writeError(c, err)
	}
	detail, err := h.svc.GetUsageDetail(ctx, id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) deleteUsage(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	if _, err := h.svc.DeleteUsage(c.Request().Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
