package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/lotflow/internal/application/service"
	"github.com/garyjia/lotflow/internal/domain/entity"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportCMLots handles GET /api/v1/cm-lots/export
func (h *Handlers) ExportCMLots(c *gin.Context) {
	h.export(c, h.services.Export.ExportCMLots)
}

// ExportPackLots handles GET /api/v1/pack-lots/export
func (h *Handlers) ExportPackLots(c *gin.Context) {
	h.export(c, h.services.Export.ExportPackLots)
}

// ListArchivedExports handles GET /api/v1/exports/:entity
func (h *Handlers) ListArchivedExports(c *gin.Context) {
	names, err := h.services.Export.ListArchived(c.Request.Context(), c.Param("entity"))
	if err != nil {
		h.respondError(c, "list exports", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	ok(c, names)
}

// DownloadArchivedExport handles GET /api/v1/exports/:entity/:filename
func (h *Handlers) DownloadArchivedExport(c *gin.Context) {
	report, err := h.services.Export.ReadArchived(c.Request.Context(), c.Param("entity"), c.Param("filename"))
	if err != nil {
		h.respondError(c, "read export", err)
		return
	}
	attach(c, report)
}

func (h *Handlers) export(c *gin.Context, run func(context.Context, entity.LotFilter) (*service.Report, error)) {
	filter, valid := h.listFilter(c)
	if !valid {
		return
	}
	// exports cover every matching lot
	filter.Limit, filter.Offset = 0, 0

	report, err := run(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "export", err)
		return
	}
	attach(c, report)
}

func attach(c *gin.Context, report *service.Report) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	c.Data(http.StatusOK, xlsxContentType, report.Content)
}
