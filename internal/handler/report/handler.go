package report

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-dashboard/internal/handler"
	"github.com/jwalitptl/clinic-dashboard/internal/service/export"
	"github.com/jwalitptl/clinic-dashboard/internal/service/report"
	"github.com/jwalitptl/clinic-dashboard/internal/web"
)

type Handler struct {
	reports *report.Service
	export  *export.Service
}

func NewHandler(reports *report.Service, export *export.Service) *Handler {
	return &Handler{reports: reports, export: export}
}

func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.reports.Dashboard(c.Request.Context())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Render(c, http.StatusOK, web.PageDashboard, "Clinic Dashboard", gin.H{
		"revenue":    d.Revenue,
		"kpis":       d.KPIs,
		"status_mix": d.StatusMix,
	})
}

func (h *Handler) Daily(c *gin.Context) {
	rows, err := h.reports.DailySummary(c.Request.Context(), report.DefaultSummaryDays)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Render(c, http.StatusOK, web.PageReportsDaily, "Daily Report", gin.H{"rows": rows})
}

// DailyJSON serves the daily rollup. days defaults to 14 and must be an
// integer.
func (h *Handler) DailyJSON(c *gin.Context) {
	days := report.DefaultSummaryDays
	if raw, ok := c.GetQuery("days"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("days must be an integer"))
			return
		}
		days = n
	}

	rows, err := h.reports.DailySummary(c.Request.Context(), days)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) AppointmentsCSV(c *gin.Context) {
	body, err := h.export.AppointmentsCSV(c.Request.Context())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+export.Filename)
	c.Data(http.StatusOK, export.ContentType, body)
}
