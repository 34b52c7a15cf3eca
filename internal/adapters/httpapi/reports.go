package httpapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"inventorycore/internal/adapters/reports"
	"inventorycore/internal/blob"
)

type reportResponse struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

func (h *Handler) listReports(c echo.Context) error {
	infos, err := h.opts.Reports.List(c.Request().Context())
	if err != nil {
		return h.writeError(c, err)
	}
	if infos == nil {
		infos = []blob.Info{}
	}
	return c.JSON(http.StatusOK, infos)
}

func (h *Handler) exportReport(c echo.Context) error {
	kind, err := reports.ParseKind(c.Param("kind"))
	if err != nil {
		return h.writeError(c, err)
	}
	format, err := reports.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return h.writeError(c, err)
	}
	info, err := h.opts.Reports.Export(c.Request().Context(), kind, format)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, reportResponse{Key: info.Key, Size: info.Size, ContentType: info.ContentType})
}

func (h *Handler) downloadReport(c echo.Context) error {
	key := reports.KeyPrefix + c.Param("kind") + "/" + c.Param("file")
	info, body, err := h.opts.Reports.Open(c.Request().Context(), key)
	if err != nil {
		return h.writeError(c, err)
	}
	defer body.Close()
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", c.Param("file")))
	return c.Stream(http.StatusOK, info.ContentType, body)
}
