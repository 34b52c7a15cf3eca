package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"inventorycore/internal/core"
)

type productBody struct {
	Code      *string          `json:"code"`
	Name      *string          `json:"name"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
}

type rawMaterialBody struct {
	Code           *string `json:"code"`
	Description    *string `json:"description"`
	AvailableStock *int64  `json:"availableStock"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func invalidPayload(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, messageBody("Invalid request payload"))
}

func invalidID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, messageBody("Invalid id"))
}

func (h *Handler) listProducts(c echo.Context) error {
	products, err := h.svc.ListProducts(c.Request().Context())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *Handler) getProduct(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	p, err := h.svc.GetProduct(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) createProduct(c echo.Context) error {
	var body productBody
	if err := c.Bind(&body); err != nil {
		return invalidPayload(c)
	}
	p, _, err := h.svc.CreateProduct(c.Request().Context(), core.ProductInput{
		Code:      deref(body.Code),
		Name:      deref(body.Name),
		UnitPrice: body.UnitPrice,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) updateProduct(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var body productBody
	if err := c.Bind(&body); err != nil {
		return invalidPayload(c)
	}
	p, _, err := h.svc.UpdateProduct(c.Request().Context(), id, core.ProductPatch{
		Code:      body.Code,
		Name:      body.Name,
		UnitPrice: body.UnitPrice,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) deleteProduct(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	if _, err := h.svc.DeleteProduct(c.Request().Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) listRawMaterials(c echo.Context) error {
	materials, err := h.svc.ListRawMaterials(c.Request().Context())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, materials)
}

func (h *Handler) getRawMaterial(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	m, err := h.svc.GetRawMaterial(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) createRawMaterial(c echo.Context) error {
	var body rawMaterialBody
	if err := c.Bind(&body); err != nil {
		return invalidPayload(c)
	}
	m, _, err := h.svc.CreateRawMaterial(c.Request().Context(), core.RawMaterialInput{
		Code:           deref(body.Code),
		Description:    deref(body.Description),
		AvailableStock: body.AvailableStock,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) updateRawMaterial(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var body rawMaterialBody
	if err := c.Bind(&body); err != nil {
		return invalidPayload(c)
	}
	m, _, err := h.svc.UpdateRawMaterial(c.Request().Context(), id, core.RawMaterialPatch{
		Code:           body.Code,
		Description:    body.Description,
		AvailableStock: body.AvailableStock,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) deleteRawMaterial(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	if _, err := h.svc.DeleteRawMaterial(c.Request().Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
