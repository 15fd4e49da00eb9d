package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/interatlas/management-system/internal/audit"
	"github.com/interatlas/management-system/internal/database"
	"github.com/interatlas/management-system/internal/metrics"
	"github.com/interatlas/management-system/internal/model"
	"github.com/interatlas/management-system/internal/repository"
)

// ReplacementInput is a request to take parts from stock and fit them to a
// machine.
type ReplacementInput struct {
	Date         time.Time
	PartNumber   string
	Quantity     int
	SerialNumber string
	LocationID   uint64
}

// Replacements records part replacements.  All checks and both writes (the
// stock decrement and the replacement row) happen in one transaction.
type Replacements struct {
	db       database.Beginner
	parts    *repository.PartRepo
	machines *repository.MachineRepo
	ledger   *Ledger
	replaced *repository.ReplacementRepo
	audit    audit.Sink
	now      Clock
}

func NewReplacements(db database.Beginner, parts *repository.PartRepo, machines *repository.MachineRepo,
	ledger *Ledger, replaced *repository.ReplacementRepo, sink audit.Sink) *Replacements {
	return &Replacements{db: db, parts: parts, machines: machines, ledger: ledger, replaced: replaced, audit: sink, now: utcNow}
}

// Record validates the request in order (part, machine, date, compatibility,
// stock), computes warranty coverage and persists the replacement.  Any
// rejection leaves stock and history untouched.
func (s *Replacements) Record(ctx context.Context, actor Actor, in ReplacementInput) (model.PartsReplaced, error) {
	in.PartNumber = strings.TrimSpace(in.PartNumber)
	in.SerialNumber = strings.TrimSpace(in.SerialNumber)
	if in.Quantity <= 0 {
		return model.PartsReplaced{}, s.reject(ErrInvalidQuantity)
	}

	var pr model.PartsReplaced
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		part, err := s.parts.GetByNumber(ctx, tx, in.PartNumber)
		if err != nil {
			return notFound(err, ErrPartNotFound)
		}
		machine, err := s.machines.GetBySerial(ctx, tx, in.SerialNumber)
		if err != nil {
			return notFound(err, ErrMachineNotFound)
		}
		date := model.DateOnly(in.Date)
		if date.Before(model.DateOnly(machine.StartOfOperation)) {
			return ErrInvalidDate
		}
		fits, err := s.parts.FitsMachineType(ctx, tx, part.ID, machine.MachineTypeID)
		if err != nil {
			return err
		}
		if !fits {
			return ErrIncompatiblePart
		}

		// locks the stock row, checks quantity >= requested, then decrements
		inv, err := s.ledger.AdjustTx(ctx, tx, part.ID, in.LocationID, -in.Quantity)
		if err != nil {
			return err
		}

		pr = model.PartsReplaced{
			Date:        date,
			PartID:      part.ID,
			Quantity:    in.Quantity,
			MachineID:   machine.ID,
			Warranty:    machine.UnderWarranty(date),
			InventoryID: inv.ID,
			UserID:      actor.userID(),
			CreatedAt:   s.now(),
		}
		pr.ID, err = s.replaced.InsertTx(ctx, tx, pr)
		return err
	})
	if err != nil {
		return model.PartsReplaced{}, s.reject(err)
	}

	metrics.PartsReplaced.WithLabelValues(strconv.FormatBool(pr.Warranty)).Inc()
	s.audit.Record(ctx, actor.Name, "Replaced_Part",
		fmt.Sprintf("Part: %s; Machine s/n: %s; Qty: %d", in.PartNumber, in.SerialNumber, in.Quantity), audit.Info)
	return pr, nil
}

func (s *Replacements) reject(err error) error {
	var e *Error
	if errors.As(err, &e) {
		metrics.ReplacementRejections.WithLabelValues(e.Code).Inc()
	}
	return err
}
