package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/interatlas/management-system/internal/model"
	"github.com/interatlas/management-system/internal/service"
)

// CatalogHandler serves the reference data: clients, machines, machine
// types, stock locations and parts.
type CatalogHandler struct {
	Catalog *service.Catalog
	Log     *zap.SugaredLogger
}

func NewCatalogHandler(cat *service.Catalog, log *zap.SugaredLogger) *CatalogHandler {
	return &CatalogHandler{Catalog: cat, Log: log}
}

// ----- DTOs -----

type nameReq struct {
	Name string `json:"name"`
}

type machineReq struct {
	SerialNumber     string `json:"serial_number"`
	StartOfOperation string `json:"start_of_operation"`
	WarrantyYears    int    `json:"warranty_years"`
	MachineTypeID    uint64 `json:"machine_type_id"`
	ClientID         uint64 `json:"client_id"`
}

type machineEditReq struct {
	ClientID uint64 `json:"client_id"`
	IsActive bool   `json:"is_active"`
}

type partReq struct {
	PartNumber     string          `json:"part_number"`
	NameEN         string          `json:"name_en"`
	NameLT         string          `json:"name_lt"`
	Price          decimal.Decimal `json:"price"`
	MachineTypeIDs []uint64        `json:"machine_type_ids"`
	Stock          map[uint64]int  `json:"stock"` // location id -> initial quantity
}

type recountReq struct {
	Stock map[uint64]int `json:"stock"`
}

// ---- clients ----

func (h *CatalogHandler) ListClients(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Catalog.ListClients(ctx)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) GetClient(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	cl, err := h.Catalog.GetClient(ctx, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, cl)
}

func (h *CatalogHandler) CreateClient(c echo.Context) error {
	var req model.Client
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	req.ID = 0
	ctx, cancel := requestCtx(c)
	defer cancel()
	cl, err := h.Catalog.CreateClient(ctx, actorOf(c), req)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, cl)
}

func (h *CatalogHandler) UpdateClient(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c)
	}
	var req model.Client
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	req.ID = id
	ctx, cancel := requestCtx(c)
	defer cancel()
	cl, err := h.Catalog.UpdateClient(ctx, actorOf(c), req)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, cl)
}

// ---- machine types and locations ----

func (h *CatalogHandler) ListMachineTypes(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Catalog.ListMachineTypes(ctx)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) CreateMachineType(c echo.Context) error {
	var req nameReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	mt, err := h.Catalog.CreateMachineType(ctx, actorOf(c), req.Name)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, mt)
}

func (h *CatalogHandler) ListLocations(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Catalog.ListLocations(ctx)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) CreateLocation(c echo.Context) error {
	var req model.Location
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	req.ID = 0
	ctx, cancel := requestCtx(c)
	defer cancel()
	l, err := h.Catalog.CreateLocation(ctx, actorOf(c), req)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, l)
}

// ---- machines ----

// ListMachines returns all machines, or a single client's with ?client_id.
func (h *CatalogHandler) ListMachines(c echo.Context) error {
	clientID, err := queryID(c, "client_id")
	if err != nil {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Catalog.ListMachines(ctx, clientID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) MachineInfo(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	info, err := h.Catalog.MachineInfo(ctx, c.Param("serial"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, info)
}

func (h *CatalogHandler) CreateMachine(c echo.Context) error {
	var req machineReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	start, err := parseDate(req.StartOfOperation)
	if err != nil {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	m, err := h.Catalog.CreateMachine(ctx, actorOf(c), service.MachineInput{
		SerialNumber:     req.SerialNumber,
		StartOfOperation: start,
		WarrantyYears:    req.WarrantyYears,
		MachineTypeID:    req.MachineTypeID,
		ClientID:         req.ClientID,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *CatalogHandler) UpdateMachine(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c)
	}
	var req machineEditReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	m, err := h.Catalog.UpdateMachine(ctx, actorOf(c), id, req.ClientID, req.IsActive)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, m)
}

// ---- parts ----

func (h *CatalogHandler) ListParts(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Catalog.ListParts(ctx)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) GetPart(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	p, err := h.Catalog.GetPart(ctx, c.Param("number"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHandler) CreatePart(c echo.Context) error {
	var req partReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	p, err := h.Catalog.CreatePart(ctx, actorOf(c), service.PartInput{
		PartNumber:     req.PartNumber,
		NameEN:         req.NameEN,
		NameLT:         req.NameLT,
		Price:          req.Price,
		MachineTypeIDs: req.MachineTypeIDs,
		Stock:          req.Stock,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// Recount overwrites per-location stock after a manual count and returns
// the quantities that changed.
func (h *CatalogHandler) Recount(c echo.Context) error {
	var req recountReq
	if err := c.Bind(&req); err != nil || len(req.Stock) == 0 {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	changes, err := h.Catalog.Recount(ctx, actorOf(c), c.Param("number"), req.Stock)
	if err != nil {
		return fail(c, h.Log, err)
	}
	if changes == nil {
		changes = []service.StockChange{}
	}
	return c.JSON(http.StatusOK, changes)
}

// Prices lists the parts fitting a machine type.
func (h *CatalogHandler) Prices(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Catalog.Prices(ctx, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}
