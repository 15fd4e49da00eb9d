package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/interatlas/management-system/internal/audit"
	"github.com/interatlas/management-system/internal/database"
	"github.com/interatlas/management-system/internal/model"
	"github.com/interatlas/management-system/internal/repository"
)

// Visits manages the visit calendar.  A client has at most one visit per
// day; the check runs in the same transaction as the write and the unique
// index backs it up.
type Visits struct {
	db       database.Beginner
	visits   *repository.VisitRepo
	clients  *repository.ClientRepo
	machines *repository.MachineRepo
	services *repository.ServiceRepo
	users    *repository.UserRepo
	notify   Notifier
	audit    audit.Sink
	log      *zap.SugaredLogger
}

func NewVisits(db database.Beginner, visits *repository.VisitRepo, clients *repository.ClientRepo,
	machines *repository.MachineRepo, services *repository.ServiceRepo, users *repository.UserRepo,
	notify Notifier, sink audit.Sink, log *zap.SugaredLogger) *Visits {
	return &Visits{db: db, visits: visits, clients: clients, machines: machines, services: services,
		users: users, notify: notify, audit: sink, log: log}
}

const dateLayout = "2006-01-02"

// Create books a visit and mails it to every active, verified user.
func (s *Visits) Create(ctx context.Context, actor Actor, clientID uint64, date time.Time, purpose string) (model.Visit, error) {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return model.Visit{}, notFound(err, ErrClientNotFound)
	}
	v := model.Visit{ClientID: clientID, Date: model.DateOnly(date), Purpose: strings.TrimSpace(purpose)}
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		taken, err := s.visits.ExistsTx(ctx, tx, clientID, v.Date, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateVisit
		}
		v.ID, err = s.visits.InsertTx(ctx, tx, v)
		return conflict(err, ErrDuplicateVisit)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateVisit) {
			s.audit.Record(ctx, actor.Name, "New_Visit", "Visit exist; "+describeVisit(v, client), audit.Warning)
		}
		return model.Visit{}, err
	}
	s.audit.Record(ctx, actor.Name, "New_Visit", describeVisit(v, client), audit.Info)

	to, err := reachableEmails(ctx, s.users)
	if err != nil {
		s.log.Warnw("visit mail skipped: list recipients", "visit_id", v.ID, "err", err)
		return v, nil
	}
	s.notify.VisitScheduled(ctx, actor.Lang, to, v, client)
	return v, nil
}

func describeVisit(v model.Visit, c model.Client) string {
	return fmt.Sprintf("Date: %s; Client: %s %s; Purpose: %s", v.Date.Format(dateLayout), c.Company, c.City, v.Purpose)
}

// Edit moves a visit and/or changes its purpose.  Uniqueness is re-checked
// against every other visit of the same client.
func (s *Visits) Edit(ctx context.Context, actor Actor, id uint64, date time.Time, purpose string) (model.Visit, error) {
	var (
		before, after model.Visit
	)
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		before, err = s.visits.LockTx(ctx, tx, id)
		if err != nil {
			return notFound(err, ErrVisitNotFound)
		}
		after = before
		after.Date = model.DateOnly(date)
		after.Purpose = strings.TrimSpace(purpose)

		taken, err := s.visits.ExistsTx(ctx, tx, before.ClientID, after.Date, id)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateVisit
		}
		return conflict(s.visits.UpdateTx(ctx, tx, after), ErrDuplicateVisit)
	})
	if err != nil {
		return model.Visit{}, err
	}

	client, cerr := s.clients.GetByID(ctx, after.ClientID)
	if cerr != nil {
		s.log.Warnw("visit edit: load client for audit", "visit_id", id, "err", cerr)
	}
	where := client.Company + " " + client.City
	if !before.Date.Equal(after.Date) {
		s.audit.Record(ctx, actor.Name, "Edit_Visit", fmt.Sprintf("Client: %s; Date: '%s' → '%s'; Purpose: %s",
			where, before.Date.Format(dateLayout), after.Date.Format(dateLayout), before.Purpose), audit.Info)
	}
	if before.Purpose != after.Purpose {
		s.audit.Record(ctx, actor.Name, "Edit_Visit", fmt.Sprintf("Client: %s; Date: %s; Purpose: '%s' → '%s'",
			where, after.Date.Format(dateLayout), before.Purpose, after.Purpose), audit.Info)
	}
	return after, nil
}

// Delete removes a visit.  Nothing else references visits.
func (s *Visits) Delete(ctx context.Context, actor Actor, id uint64) error {
	v, err := s.visits.GetByID(ctx, id)
	if err != nil {
		return notFound(err, ErrVisitNotFound)
	}
	if err := s.visits.Delete(ctx, id); err != nil {
		return notFound(err, ErrVisitNotFound)
	}
	client, _ := s.clients.GetByID(ctx, v.ClientID)
	s.audit.Record(ctx, actor.Name, "Delete_Visit", describeVisit(v, client), audit.Info)
	return nil
}

// List returns the visits between from and to, both inclusive.
func (s *Visits) List(ctx context.Context, from, to time.Time) ([]model.Visit, error) {
	return s.visits.ListBetween(ctx, model.DateOnly(from), model.DateOnly(to))
}

// MachineNote is the latest service of one of the client's machines, shown
// on the visit page when that service left a note.
type MachineNote struct {
	Machine model.Machine `json:"machine"`
	Service model.Service `json:"service"`
}

// VisitDetail is a visit with the context a technician needs on site.
type VisitDetail struct {
	Visit  model.Visit   `json:"visit"`
	Client model.Client  `json:"client"`
	Notes  []MachineNote `json:"notes"`
}

// Detail loads a visit, its client and, for every active machine of the
// client whose latest service has a note, that service.
func (s *Visits) Detail(ctx context.Context, id uint64) (VisitDetail, error) {
	v, err := s.visits.GetByID(ctx, id)
	if err != nil {
		return VisitDetail{}, notFound(err, ErrVisitNotFound)
	}
	client, err := s.clients.GetByID(ctx, v.ClientID)
	if err != nil {
		return VisitDetail{}, err
	}
	machines, err := s.machines.List(ctx, v.ClientID)
	if err != nil {
		return VisitDetail{}, err
	}
	d := VisitDetail{Visit: v, Client: client, Notes: []MachineNote{}}
	for _, m := range machines {
		if !m.IsActive {
			continue
		}
		last, err := s.services.Latest(ctx, s.services.DB, m.ID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return VisitDetail{}, err
		}
		if last.Note != "" {
			d.Notes = append(d.Notes, MachineNote{Machine: m, Service: last})
		}
	}
	return d, nil
}
