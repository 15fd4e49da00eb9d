package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/interatlas/management-system/internal/database"
	"github.com/interatlas/management-system/internal/model"
	"github.com/interatlas/management-system/internal/repository"
)

// Ledger owns stock quantities per (part, location).  Every change is a
// locked read-modify-write inside one transaction, so two requests racing
// for the last unit cannot both succeed.
type Ledger struct {
	db  database.Beginner
	inv *repository.InventoryRepo
}

func NewLedger(db database.Beginner, inv *repository.InventoryRepo) *Ledger {
	return &Ledger{db: db, inv: inv}
}

// StockChange describes one quantity update, for the audit log.
type StockChange struct {
	PartID     uint64 `json:"part_id"`
	LocationID uint64 `json:"location_id"`
	Before     int    `json:"before"`
	After      int    `json:"after"`
}

func (c StockChange) Changed() bool { return c.Before != c.After }

// GetQuantity returns the stock of a part at a location; 0 when there is no
// row yet.
func (l *Ledger) GetQuantity(ctx context.Context, partID, locationID uint64) (int, error) {
	inv, err := l.inv.Get(ctx, partID, locationID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, nil
	}
	return inv.Quantity, err
}

// Adjust adds delta (possibly negative) to the stock and returns the new
// quantity.
func (l *Ledger) Adjust(ctx context.Context, partID, locationID uint64, delta int) (int, error) {
	var qty int
	err := database.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		inv, err := l.AdjustTx(ctx, tx, partID, locationID, delta)
		qty = inv.Quantity
		return err
	})
	return qty, err
}

// AdjustTx is Adjust inside the caller's transaction and returns the row
// after the change.  A result below zero fails with ErrInsufficientStock and
// writes nothing; a positive delta on a missing row creates it.
func (l *Ledger) AdjustTx(ctx context.Context, tx *sql.Tx, partID, locationID uint64, delta int) (model.Inventory, error) {
	inv, err := l.inv.LockTx(ctx, tx, partID, locationID)
	if errors.Is(err, repository.ErrNotFound) {
		empty := model.Inventory{PartID: partID, LocationID: locationID}
		switch {
		case delta < 0:
			return empty, ErrInsufficientStock
		case delta == 0:
			return empty, nil
		}
		return l.insertTx(ctx, tx, partID, locationID, delta, func(cur int) int { return cur + delta })
	}
	if err != nil {
		return inv, err
	}
	return l.applyTx(ctx, tx, inv, inv.Quantity+delta)
}

// SetQuantity overwrites the stock after a manual count.
func (l *Ledger) SetQuantity(ctx context.Context, partID, locationID uint64, value int) (StockChange, error) {
	var ch StockChange
	err := database.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		var err error
		ch, err = l.SetQuantityTx(ctx, tx, partID, locationID, value)
		return err
	})
	return ch, err
}

// SetQuantityTx is SetQuantity inside the caller's transaction.  A missing
// row is created only for a positive value; absent and zero is a no-op.
func (l *Ledger) SetQuantityTx(ctx context.Context, tx *sql.Tx, partID, locationID uint64, value int) (StockChange, error) {
	ch := StockChange{PartID: partID, LocationID: locationID, After: value}
	if value < 0 {
		return ch, ErrInvalidQuantity
	}
	inv, err := l.inv.LockTx(ctx, tx, partID, locationID)
	if errors.Is(err, repository.ErrNotFound) {
		if value == 0 {
			return ch, nil
		}
		_, err = l.insertTx(ctx, tx, partID, locationID, value, func(int) int { return value })
		return ch, err
	}
	if err != nil {
		return ch, err
	}
	ch.Before = inv.Quantity
	_, err = l.applyTx(ctx, tx, inv, value)
	return ch, err
}

// insertTx creates a row holding qty.  If a concurrent transaction created
// it first, the insert hits the unique index; the row is then locked (which
// waits for that transaction) and next(current) is applied to it instead.
func (l *Ledger) insertTx(ctx context.Context, tx *sql.Tx, partID, locationID uint64, qty int, next func(cur int) int) (model.Inventory, error) {
	id, err := l.inv.InsertTx(ctx, tx, partID, locationID, qty)
	if err == nil {
		return model.Inventory{ID: id, PartID: partID, LocationID: locationID, Quantity: qty}, nil
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		return model.Inventory{}, err
	}
	inv, err := l.inv.LockTx(ctx, tx, partID, locationID)
	if err != nil {
		return inv, err
	}
	return l.applyTx(ctx, tx, inv, next(inv.Quantity))
}

func (l *Ledger) applyTx(ctx context.Context, tx *sql.Tx, inv model.Inventory, next int) (model.Inventory, error) {
	if next < 0 {
		return inv, ErrInsufficientStock
	}
	if next != inv.Quantity {
		if err := l.inv.SetQuantityTx(ctx, tx, inv.ID, next); err != nil {
			return inv, err
		}
	}
	inv.Quantity = next
	return inv, nil
}
