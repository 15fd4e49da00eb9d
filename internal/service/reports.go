package service

import (
	"context"
	"time"

	"github.com/interatlas/management-system/internal/repository"
)

// MonthRange returns the first and last day of a month.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

// QuarterRange returns the first and last day of the quarter containing t.
func QuarterRange(t time.Time) (time.Time, time.Time) {
	q := (int(t.Month()) - 1) / 3
	first := time.Date(t.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 3, -1)
}

// Reports serves the read-only reports.
type Reports struct {
	reports     *repository.ReportRepo
	clients     *repository.ClientRepo
	machineType string
	now         Clock
}

func NewReports(reports *repository.ReportRepo, clients *repository.ClientRepo, machineType string) *Reports {
	return &Reports{reports: reports, clients: clients, machineType: machineType, now: utcNow}
}

// PartsReport lists the parts replaced on a client's machines between from
// and to, both inclusive.
func (s *Reports) PartsReport(ctx context.Context, clientID uint64, from, to time.Time) ([]repository.ReplacedPartRow, error) {
	if _, err := s.clients.GetByID(ctx, clientID); err != nil {
		return nil, notFound(err, ErrClientNotFound)
	}
	if to.Before(from) {
		return nil, ErrInvalidDate
	}
	rows, err := s.reports.ReplacedParts(ctx, clientID, from, to)
	if rows == nil {
		rows = []repository.ReplacedPartRow{}
	}
	return rows, err
}

// QuarterRow is a machine in the quarterly report with its latest service
// of the quarter, if any.
type QuarterRow struct {
	SerialNumber string     `json:"serial_number"`
	IsActive     bool       `json:"is_active"`
	LastDate     *time.Time `json:"last_date,omitempty"`
	BnCount      *int64     `json:"bn_count,omitempty"`
	Note         string     `json:"note,omitempty"`
}

// QuarterlyReport covers the quarter containing the current date.
type QuarterlyReport struct {
	From     time.Time    `json:"from"`
	To       time.Time    `json:"to"`
	Machines []QuarterRow `json:"machines"`
}

// Quarterly builds the service report for the current quarter: the
// client's machines of the report machine type that are active, plus
// inactive ones serviced during the quarter.
func (s *Reports) Quarterly(ctx context.Context, clientID uint64) (QuarterlyReport, error) {
	if _, err := s.clients.GetByID(ctx, clientID); err != nil {
		return QuarterlyReport{}, notFound(err, ErrClientNotFound)
	}
	from, to := QuarterRange(s.now())
	rows, err := s.reports.QuarterServices(ctx, clientID, s.machineType, from, to)
	if err != nil {
		return QuarterlyReport{}, err
	}
	rep := QuarterlyReport{From: from, To: to, Machines: make([]QuarterRow, 0, len(rows))}
	for _, r := range rows {
		q := QuarterRow{SerialNumber: r.SerialNumber, IsActive: r.IsActive}
		if r.LastDate.Valid {
			d := r.LastDate.Time
			q.LastDate = &d
		}
		if r.LastBnCount.Valid {
			n := r.LastBnCount.Int64
			q.BnCount = &n
		}
		q.Note = r.LastNote.String
		rep.Machines = append(rep.Machines, q)
	}
	return rep, nil
}

// MonthlyCounts returns the number of services per month of a year, all
// twelve months present.  clientID 0 counts every client.
func (s *Reports) MonthlyCounts(ctx context.Context, year int, clientID uint64) ([12]int, error) {
	var out [12]int
	from, _ := MonthRange(year, time.January)
	_, to := MonthRange(year, time.December)
	rows, err := s.reports.MonthlyServiceCounts(ctx, clientID, from, to)
	if err != nil {
		return out, err
	}
	for _, r := range rows {
		if r.Month >= 1 && r.Month <= 12 {
			out[r.Month-1] = r.Services
		}
	}
	return out, nil
}
