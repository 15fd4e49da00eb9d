package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/interatlas/management-system/internal/service"
)

// WorkHandler serves the day-to-day records: tasks, visits, machine
// services and part replacements.
type WorkHandler struct {
	Tasks        *service.Tasks
	Visits       *service.Visits
	Maintenance  *service.Maintenance
	Replacements *service.Replacements
	Log          *zap.SugaredLogger
}

func NewWorkHandler(t *service.Tasks, v *service.Visits, m *service.Maintenance, r *service.Replacements, log *zap.SugaredLogger) *WorkHandler {
	return &WorkHandler{Tasks: t, Visits: v, Maintenance: m, Replacements: r, Log: log}
}

type taskReq struct {
	Task string `json:"task"`
}

type visitReq struct {
	ClientID uint64 `json:"client_id"`
	Date     string `json:"date"`
	Purpose  string `json:"purpose"`
}

type serviceReq struct {
	Date         string `json:"date"`
	SerialNumber string `json:"serial_number"`
	BnCount      uint64 `json:"bn_count"`
	Note         string `json:"note"`
}

type replacementReq struct {
	Date         string `json:"date"`
	PartNumber   string `json:"part_number"`
	Quantity     int    `json:"quantity"`
	SerialNumber string `json:"serial_number"`
	LocationID   uint64 `json:"location_id"`
}

// ListTasks returns all tasks, or only open ones with ?open=true.
func (h *WorkHandler) ListTasks(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	tasks, err := h.Tasks.List(ctx, c.QueryParam("open") == "true")
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *WorkHandler) CreateTask(c echo.Context) error {
	var req taskReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	t, err := h.Tasks.Create(ctx, actorOf(c), req.Task)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *WorkHandler) CompleteTask(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	t, err := h.Tasks.Complete(ctx, actorOf(c), id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return flash(c, http.StatusOK, "flash_task_completed", t)
}

// ListVisits returns visits between ?from and ?to (inclusive).  Without a
// range it covers the current month.
func (h *WorkHandler) ListVisits(c echo.Context) error {
	from, to := service.MonthRange(time.Now().UTC().Year(), time.Now().UTC().Month())
	if s := c.QueryParam("from"); s != "" {
		d, err := parseDate(s)
		if err != nil {
			return badRequest(c)
		}
		from = d
	}
	if s := c.QueryParam("to"); s != "" {
		d, err := parseDate(s)
		if err != nil {
			return badRequest(c)
		}
		to = d
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	visits, err := h.Visits.List(ctx, from, to)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, visits)
}

func (h *WorkHandler) VisitDetail(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	d, err := h.Visits.Detail(ctx, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *WorkHandler) CreateVisit(c echo.Context) error {
	var req visitReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	date, err := parseDate(req.Date)
	if err != nil || req.ClientID == 0 {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	v, err := h.Visits.Create(ctx, actorOf(c), req.ClientID, date, strings.TrimSpace(req.Purpose))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *WorkHandler) EditVisit(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c)
	}
	var req visitReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	v, err := h.Visits.Edit(ctx, actorOf(c), id, date, strings.TrimSpace(req.Purpose))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *WorkHandler) DeleteVisit(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Visits.Delete(ctx, actorOf(c), id); err != nil {
		return fail(c, h.Log, err)
	}
	return flash(c, http.StatusOK, "flash_visit_deleted", nil)
}

// RecordService appends a maintenance record to a machine.
func (h *WorkHandler) RecordService(c echo.Context) error {
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	s, err := h.Maintenance.Record(ctx, actorOf(c), service.ServiceInput{
		Date:         date,
		SerialNumber: strings.TrimSpace(req.SerialNumber),
		BnCount:      req.BnCount,
		Note:         strings.TrimSpace(req.Note),
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, s)
}

// RecordReplacement takes parts out of stock and fits them to a machine.
func (h *WorkHandler) RecordReplacement(c echo.Context) error {
	var req replacementReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	date, err := parseDate(req.Date)
	if err != nil || req.LocationID == 0 {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	pr, err := h.Replacements.Record(ctx, actorOf(c), service.ReplacementInput{
		Date:         date,
		PartNumber:   strings.TrimSpace(req.PartNumber),
		Quantity:     req.Quantity,
		SerialNumber: strings.TrimSpace(req.SerialNumber),
		LocationID:   req.LocationID,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, pr)
}
