package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/interatlas/management-system/internal/service"
)

// ReportHandler serves the read-side reports.
type ReportHandler struct {
	Reports *service.Reports
	Log     *zap.SugaredLogger
}

func NewReportHandler(r *service.Reports, log *zap.SugaredLogger) *ReportHandler {
	return &ReportHandler{Reports: r, Log: log}
}

// Parts lists replaced parts for a client between ?from and ?to.
func (h *ReportHandler) Parts(c echo.Context) error {
	clientID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c)
	}
	from, err := parseDate(c.QueryParam("from"))
	if err != nil {
		return badRequest(c)
	}
	to, err := parseDate(c.QueryParam("to"))
	if err != nil {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	rows, err := h.Reports.PartsReport(ctx, clientID, from, to)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *ReportHandler) Quarterly(c echo.Context) error {
	clientID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	rep, err := h.Reports.Quarterly(ctx, clientID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, rep)
}

// Monthly returns twelve service counts for ?year (default: this year),
// optionally for one ?client_id.
func (h *ReportHandler) Monthly(c echo.Context) error {
	year := time.Now().UTC().Year()
	if s := c.QueryParam("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 2000 || y > 9999 {
			return badRequest(c)
		}
		year = y
	}
	clientID, err := queryID(c, "client_id")
	if err != nil {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	counts, err := h.Reports.MonthlyCounts(ctx, year, clientID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"year": year, "counts": counts})
}
