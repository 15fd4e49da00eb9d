package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/interatlas/management-system/internal/audit"
	"github.com/interatlas/management-system/internal/database"
	"github.com/interatlas/management-system/internal/model"
	"github.com/interatlas/management-system/internal/repository"
)

// Catalog maintains the reference data: clients, machine types, machines,
// locations and parts with their stock.
type Catalog struct {
	db        database.Beginner
	clients   *repository.ClientRepo
	types     *repository.MachineTypeRepo
	machines  *repository.MachineRepo
	locations *repository.LocationRepo
	parts     *repository.PartRepo
	inventory *repository.InventoryRepo
	services  *repository.ServiceRepo
	replaced  *repository.ReplacementRepo
	ledger    *Ledger
	audit     audit.Sink
}

// CatalogRepos bundles the repositories the catalog reads and writes.
type CatalogRepos struct {
	Clients   *repository.ClientRepo
	Types     *repository.MachineTypeRepo
	Machines  *repository.MachineRepo
	Locations *repository.LocationRepo
	Parts     *repository.PartRepo
	Inventory *repository.InventoryRepo
	Services  *repository.ServiceRepo
	Replaced  *repository.ReplacementRepo
}

func NewCatalog(db database.Beginner, r CatalogRepos, ledger *Ledger, sink audit.Sink) *Catalog {
	return &Catalog{db: db, clients: r.Clients, types: r.Types, machines: r.Machines, locations: r.Locations,
		parts: r.Parts, inventory: r.Inventory, services: r.Services, replaced: r.Replaced, ledger: ledger, audit: sink}
}

// ---- clients ----

// CreateClient adds a client.  Phone number and email must be unused.
func (s *Catalog) CreateClient(ctx context.Context, actor Actor, c model.Client) (model.Client, error) {
	c = trimClient(c)
	if c.Company == "" || c.PhoneNumber == "" || c.Email == "" {
		return model.Client{}, ErrEmptyText
	}
	if err := s.clientUnique(ctx, c); err != nil {
		return model.Client{}, err
	}
	id, err := s.clients.Create(ctx, c)
	if err != nil {
		return model.Client{}, conflict(err, ErrPhoneTaken)
	}
	c.ID = id
	s.audit.Record(ctx, actor.Name, "New_Client", fmt.Sprintf("Client: %s %s", c.Company, c.City), audit.Info)
	return c, nil
}

func trimClient(c model.Client) model.Client {
	c.Company = strings.TrimSpace(c.Company)
	c.Address = strings.TrimSpace(c.Address)
	c.City = strings.TrimSpace(c.City)
	c.ContactPerson = strings.TrimSpace(c.ContactPerson)
	c.PhoneNumber = strings.TrimSpace(c.PhoneNumber)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	return c
}

func (s *Catalog) clientUnique(ctx context.Context, c model.Client) error {
	taken, err := s.clients.PhoneTaken(ctx, c.PhoneNumber, c.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrPhoneTaken
	}
	taken, err = s.clients.EmailTaken(ctx, c.Email, c.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}
	return nil
}

// UpdateClient changes the contact fields of a client.  Company and city
// are fixed after creation.
func (s *Catalog) UpdateClient(ctx context.Context, actor Actor, c model.Client) (model.Client, error) {
	old, err := s.clients.GetByID(ctx, c.ID)
	if err != nil {
		return model.Client{}, notFound(err, ErrClientNotFound)
	}
	c = trimClient(c)
	c.Company, c.City = old.Company, old.City
	if err := s.clientUnique(ctx, c); err != nil {
		return model.Client{}, err
	}
	if err := s.clients.Update(ctx, c); err != nil {
		return model.Client{}, conflict(err, ErrPhoneTaken)
	}
	who := fmt.Sprintf("Client: '%s %s'", old.Company, old.City)
	for _, ch := range []struct{ field, before, after string }{
		{"Address", old.Address, c.Address},
		{"Contact Person", old.ContactPerson, c.ContactPerson},
		{"Phone Number", old.PhoneNumber, c.PhoneNumber},
		{"Email", old.Email, c.Email},
	} {
		if ch.before != ch.after {
			s.audit.Record(ctx, actor.Name, "Edit_Client",
				fmt.Sprintf("%s; %s: '%s' → '%s'", who, ch.field, ch.before, ch.after), audit.Info)
		}
	}
	return c, nil
}

func (s *Catalog) GetClient(ctx context.Context, id uint64) (model.Client, error) {
	c, err := s.clients.GetByID(ctx, id)
	return c, notFound(err, ErrClientNotFound)
}

func (s *Catalog) ListClients(ctx context.Context) ([]model.Client, error) {
	return s.clients.List(ctx)
}

// ---- machine types and locations ----

func (s *Catalog) CreateMachineType(ctx context.Context, actor Actor, name string) (model.MachineType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.MachineType{}, ErrEmptyText
	}
	id, err := s.types.Create(ctx, name)
	if err != nil {
		return model.MachineType{}, conflict(err, ErrNameTaken)
	}
	return model.MachineType{ID: id, Name: name}, nil
}

func (s *Catalog) ListMachineTypes(ctx context.Context) ([]model.MachineType, error) {
	return s.types.List(ctx)
}

func (s *Catalog) CreateLocation(ctx context.Context, actor Actor, l model.Location) (model.Location, error) {
	l.LocationEN, l.LocationLT = strings.TrimSpace(l.LocationEN), strings.TrimSpace(l.LocationLT)
	if l.LocationEN == "" || l.LocationLT == "" {
		return model.Location{}, ErrEmptyText
	}
	id, err := s.locations.Create(ctx, l)
	if err != nil {
		return model.Location{}, conflict(err, ErrNameTaken)
	}
	l.ID = id
	return l, nil
}

func (s *Catalog) ListLocations(ctx context.Context) ([]model.Location, error) {
	return s.locations.List(ctx)
}

// ---- machines ----

// MachineInput is the new-machine form.
type MachineInput struct {
	SerialNumber     string
	StartOfOperation time.Time
	WarrantyYears    int
	MachineTypeID    uint64
	ClientID         uint64
}

// CreateMachine registers a machine at a client.  The warranty ends
// WarrantyYears after the start of operation, on the same calendar day.
func (s *Catalog) CreateMachine(ctx context.Context, actor Actor, in MachineInput) (model.Machine, error) {
	serial := strings.TrimSpace(in.SerialNumber)
	if serial == "" {
		return model.Machine{}, ErrEmptyText
	}
	if in.WarrantyYears < 1 {
		return model.Machine{}, ErrInvalidWarranty
	}
	if _, err := s.clients.GetByID(ctx, in.ClientID); err != nil {
		return model.Machine{}, notFound(err, ErrClientNotFound)
	}
	if _, err := s.types.GetByID(ctx, in.MachineTypeID); err != nil {
		return model.Machine{}, notFound(err, ErrMachineTypeNotFound)
	}
	start := model.DateOnly(in.StartOfOperation)
	m := model.Machine{
		SerialNumber:     serial,
		StartOfOperation: start,
		EndOfWarranty:    start.AddDate(in.WarrantyYears, 0, 0),
		MachineTypeID:    in.MachineTypeID,
		ClientID:         in.ClientID,
		IsActive:         true,
	}
	id, err := s.machines.Create(ctx, m)
	if err != nil {
		return model.Machine{}, conflict(err, ErrSerialTaken)
	}
	m.ID = id
	s.audit.Record(ctx, actor.Name, "New_Machine", "Machine s/n: "+m.SerialNumber, audit.Info)
	return m, nil
}

// UpdateMachine reassigns a machine to another client and/or toggles it.
func (s *Catalog) UpdateMachine(ctx context.Context, actor Actor, id, clientID uint64, active bool) (model.Machine, error) {
	m, err := s.machines.GetByID(ctx, id)
	if err != nil {
		return model.Machine{}, notFound(err, ErrMachineNotFound)
	}
	newClient, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return model.Machine{}, notFound(err, ErrClientNotFound)
	}
	if err := s.machines.Update(ctx, id, clientID, active); err != nil {
		return model.Machine{}, err
	}
	if m.ClientID != clientID {
		old, _ := s.clients.GetByID(ctx, m.ClientID)
		s.audit.Record(ctx, actor.Name, "Edit_Machine", fmt.Sprintf("Machine s/n: %s; Client: '%s %s' → '%s %s'",
			m.SerialNumber, old.Company, old.City, newClient.Company, newClient.City), audit.Info)
	}
	if m.IsActive != active {
		s.audit.Record(ctx, actor.Name, "Edit_Machine", fmt.Sprintf("Machine s/n: %s; Is Active: '%t' → '%t'",
			m.SerialNumber, m.IsActive, active), audit.Info)
	}
	m.ClientID, m.IsActive = clientID, active
	return m, nil
}

func (s *Catalog) ListMachines(ctx context.Context, clientID uint64) ([]model.Machine, error) {
	return s.machines.List(ctx, clientID)
}

// MachineInfo is a machine with its history.
type MachineInfo struct {
	Machine  model.Machine         `json:"machine"`
	Client   model.Client          `json:"client"`
	Type     model.MachineType     `json:"machine_type"`
	Services []model.Service       `json:"services"`
	Replaced []model.PartsReplaced `json:"parts_replaced"`
}

// MachineInfo loads a machine by serial number with its services and
// replaced parts, newest first.
func (s *Catalog) MachineInfo(ctx context.Context, serial string) (MachineInfo, error) {
	m, err := s.machines.GetBySerial(ctx, s.machines.DB, serial)
	if err != nil {
		return MachineInfo{}, notFound(err, ErrMachineNotFound)
	}
	info := MachineInfo{Machine: m}
	if info.Client, err = s.clients.GetByID(ctx, m.ClientID); err != nil {
		return MachineInfo{}, err
	}
	if info.Type, err = s.types.GetByID(ctx, m.MachineTypeID); err != nil {
		return MachineInfo{}, err
	}
	if info.Services, err = s.services.ListByMachine(ctx, m.ID); err != nil {
		return MachineInfo{}, err
	}
	if info.Replaced, err = s.replaced.ListByMachine(ctx, m.ID); err != nil {
		return MachineInfo{}, err
	}
	return info, nil
}

// ---- parts ----

// PartInput is the new-part form.  Stock maps location id to the initial
// quantity there.
type PartInput struct {
	PartNumber     string
	NameEN         string
	NameLT         string
	Price          decimal.Decimal
	MachineTypeIDs []uint64
	Stock          map[uint64]int
}

// CreatePart adds a part with its compatible machine types and initial
// stock in one transaction.
func (s *Catalog) CreatePart(ctx context.Context, actor Actor, in PartInput) (model.Part, error) {
	p := model.Part{
		PartNumber:     strings.TrimSpace(in.PartNumber),
		NameEN:         strings.TrimSpace(in.NameEN),
		NameLT:         strings.TrimSpace(in.NameLT),
		Price:          in.Price,
		MachineTypeIDs: in.MachineTypeIDs,
	}
	switch {
	case p.PartNumber == "":
		return model.Part{}, ErrEmptyText
	case p.Price.IsNegative():
		return model.Part{}, ErrNegativePrice
	case len(p.MachineTypeIDs) == 0:
		return model.Part{}, ErrNoMachineType
	}
	for _, qty := range in.Stock {
		if qty < 0 {
			return model.Part{}, ErrInvalidQuantity
		}
	}
	for _, id := range p.MachineTypeIDs {
		if _, err := s.types.GetByID(ctx, id); err != nil {
			return model.Part{}, notFound(err, ErrMachineTypeNotFound)
		}
	}
	for loc := range in.Stock {
		if _, err := s.locations.GetByID(ctx, loc); err != nil {
			return model.Part{}, notFound(err, ErrLocationNotFound)
		}
	}
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		if p.ID, err = s.parts.CreateTx(ctx, tx, p); err != nil {
			return conflict(err, ErrPartNumberTaken)
		}
		for loc, qty := range in.Stock {
			if _, err := s.ledger.SetQuantityTx(ctx, tx, p.ID, loc, qty); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Part{}, err
	}
	s.audit.Record(ctx, actor.Name, "New_Part", "Part no: "+p.PartNumber, audit.Info)
	return p, nil
}

// PartStock is a part with its quantity per location.
type PartStock struct {
	Part  model.Part        `json:"part"`
	Stock []model.Inventory `json:"stock"`
}

func (s *Catalog) GetPart(ctx context.Context, number string) (PartStock, error) {
	p, err := s.parts.GetByNumber(ctx, s.parts.DB, number)
	if err != nil {
		return PartStock{}, notFound(err, ErrPartNotFound)
	}
	if p.MachineTypeIDs, err = s.parts.MachineTypeIDs(ctx, s.parts.DB, p.ID); err != nil {
		return PartStock{}, err
	}
	stock, err := s.inventory.ListByPart(ctx, p.ID)
	if err != nil {
		return PartStock{}, err
	}
	return PartStock{Part: p, Stock: stock}, nil
}

func (s *Catalog) ListParts(ctx context.Context) ([]model.Part, error) {
	return s.parts.List(ctx)
}

// Recount overwrites the stock of a part after a manual count.  All
// locations are written in one transaction; each changed quantity is
// logged.
func (s *Catalog) Recount(ctx context.Context, actor Actor, number string, counts map[uint64]int) ([]StockChange, error) {
	p, err := s.parts.GetByNumber(ctx, s.parts.DB, number)
	if err != nil {
		return nil, notFound(err, ErrPartNotFound)
	}
	locs, err := s.locations.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[uint64]string, len(locs))
	for _, l := range locs {
		names[l.ID] = l.LocationEN
	}
	for loc := range counts {
		if _, ok := names[loc]; !ok {
			return nil, ErrLocationNotFound
		}
	}
	var changes []StockChange
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for loc, qty := range counts {
			ch, err := s.ledger.SetQuantityTx(ctx, tx, p.ID, loc, qty)
			if err != nil {
				return err
			}
			if ch.Changed() {
				changes = append(changes, ch)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, ch := range changes {
		s.audit.Record(ctx, actor.Name, "Update_Part", fmt.Sprintf("Part no: %s; Location: %s; Qty: %d → %d",
			p.PartNumber, names[ch.LocationID], ch.Before, ch.After), audit.Info)
	}
	return changes, nil
}

// Prices lists the parts that fit a machine type, by part number.
func (s *Catalog) Prices(ctx context.Context, machineTypeID uint64) ([]model.Part, error) {
	if _, err := s.types.GetByID(ctx, machineTypeID); err != nil {
		return nil, notFound(err, ErrMachineTypeNotFound)
	}
	return s.parts.ListByMachineType(ctx, machineTypeID)
}
