package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/interatlas/management-system/internal/audit"
	"github.com/interatlas/management-system/internal/database"
	"github.com/interatlas/management-system/internal/model"
	"github.com/interatlas/management-system/internal/repository"
)

// ServiceInput is one maintenance record as submitted by a technician.
type ServiceInput struct {
	Date         time.Time
	SerialNumber string
	BnCount      uint64
	Note         string
}

// Maintenance records machine services.  Per machine, service date and
// banknote counter may only move forward.
type Maintenance struct {
	db       database.Beginner
	machines *repository.MachineRepo
	services *repository.ServiceRepo
	audit    audit.Sink
	now      Clock
}

func NewMaintenance(db database.Beginner, machines *repository.MachineRepo, services *repository.ServiceRepo, sink audit.Sink) *Maintenance {
	return &Maintenance{db: db, machines: machines, services: services, audit: sink, now: utcNow}
}

// Record appends a service to the machine's history.  The machine row is
// locked while the latest record is compared, so two submissions for the
// same machine are checked one after the other.
func (m *Maintenance) Record(ctx context.Context, actor Actor, in ServiceInput) (model.Service, error) {
	in.SerialNumber = strings.TrimSpace(in.SerialNumber)
	var svc model.Service
	err := database.WithTx(ctx, m.db, func(tx *sql.Tx) error {
		machine, err := m.machines.LockBySerialTx(ctx, tx, in.SerialNumber)
		if err != nil {
			return notFound(err, ErrMachineNotFound)
		}
		date := model.DateOnly(in.Date)

		last, err := m.services.Latest(ctx, tx, machine.ID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			// first service of this machine
		case err != nil:
			return err
		case model.DateOnly(last.Date).After(date):
			return ErrServiceDateRegression
		case last.BnCount > in.BnCount:
			return ErrBanknoteRegression
		}

		svc = model.Service{
			Date:      date,
			MachineID: machine.ID,
			BnCount:   in.BnCount,
			Note:      strings.TrimSpace(in.Note),
			UserID:    actor.userID(),
			CreatedAt: m.now(),
		}
		svc.ID, err = m.services.InsertTx(ctx, tx, svc)
		return err
	})
	if err != nil {
		var rejected *Error
		if errors.As(err, &rejected) && rejected.Kind == KindInvalidState {
			m.audit.Record(ctx, actor.Name, "New_Service", "Machine s/n: "+in.SerialNumber+"; "+rejected.Code, audit.Warning)
		}
		return model.Service{}, err
	}
	m.audit.Record(ctx, actor.Name, "New_Service", "Machine s/n: "+in.SerialNumber, audit.Info)
	return svc, nil
}
