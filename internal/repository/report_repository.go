package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// ReportRepo runs the read-only aggregation queries behind the reports.
// It shares the connection pool but scans through sqlx into flat row
// structs instead of domain models.
type ReportRepo struct{ db *sqlx.DB }

func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: sqlx.NewDb(db, "mysql")} }

// ReplacedPartRow is one line of the parts report.
type ReplacedPartRow struct {
	Date         time.Time       `db:"date" json:"date"`
	PartNumber   string          `db:"part_number" json:"part_number"`
	NameEN       string          `db:"name_en" json:"name_en"`
	NameLT       string          `db:"name_lt" json:"name_lt"`
	Price        decimal.Decimal `db:"price" json:"price"`
	Quantity     int             `db:"quantity" json:"quantity"`
	SerialNumber string          `db:"serial_number" json:"serial_number"`
	Warranty     bool            `db:"warranty" json:"warranty"`
}

// ReplacedParts lists the parts fitted to a client's machines with
// from <= date <= to.
func (r *ReportRepo) ReplacedParts(ctx context.Context, clientID uint64, from, to time.Time) ([]ReplacedPartRow, error) {
	var out []ReplacedPartRow
	err := r.db.SelectContext(ctx, &out,
		`SELECT pr.date, p.part_number, p.name_en, p.name_lt, p.price, pr.quantity, m.serial_number, pr.warranty
		   FROM parts_replaced pr
		   JOIN parts p ON p.id = pr.part_id
		   JOIN machines m ON m.id = pr.machine_id
		  WHERE m.client_id = ? AND pr.date BETWEEN ? AND ?
		  ORDER BY pr.date, pr.id`,
		clientID, from, to)
	return out, err
}

// QuarterServiceRow is one machine in the quarterly service report.  The
// Last* columns are NULL when the machine had no service in the period.
type QuarterServiceRow struct {
	MachineID    uint64         `db:"machine_id" json:"machine_id"`
	SerialNumber string         `db:"serial_number" json:"serial_number"`
	IsActive     bool           `db:"is_active" json:"is_active"`
	LastDate     sql.NullTime   `db:"last_date" json:"-"`
	LastBnCount  sql.NullInt64  `db:"last_bn_count" json:"-"`
	LastNote     sql.NullString `db:"last_note" json:"-"`
}

// QuarterServices returns the client's machines of the given type that are
// active, or inactive but serviced within [from, to], each with its latest
// service inside that window.
func (r *ReportRepo) QuarterServices(ctx context.Context, clientID uint64, machineType string, from, to time.Time) ([]QuarterServiceRow, error) {
	var out []QuarterServiceRow
	err := r.db.SelectContext(ctx, &out,
		`SELECT m.id AS machine_id, m.serial_number, m.is_active,
		        s.date AS last_date, s.bn_count AS last_bn_count, s.note AS last_note
		   FROM machines m
		   JOIN machine_types mt ON mt.id = m.machine_type_id
		   LEFT JOIN services s ON s.id = (
		        SELECT s2.id FROM services s2
		         WHERE s2.machine_id = m.id AND s2.date BETWEEN ? AND ?
		         ORDER BY s2.date DESC, s2.id DESC LIMIT 1)
		  WHERE m.client_id = ? AND mt.name = ? AND (m.is_active = 1 OR s.id IS NOT NULL)
		  ORDER BY m.serial_number`,
		from, to, clientID, machineType)
	return out, err
}

// MonthCount is the number of services recorded in one month.
type MonthCount struct {
	Month    int `db:"month" json:"month"`
	Services int `db:"services" json:"services"`
}

// MonthlyServiceCounts groups services in [from, to] by calendar month,
// optionally for one client (clientID > 0).  Months without services are
// absent from the result.
func (r *ReportRepo) MonthlyServiceCounts(ctx context.Context, clientID uint64, from, to time.Time) ([]MonthCount, error) {
	query := `SELECT MONTH(s.date) AS month, COUNT(*) AS services
	            FROM services s JOIN machines m ON m.id = s.machine_id
	           WHERE s.date BETWEEN ? AND ?`
	args := []any{from, to}
	if clientID > 0 {
		query += " AND m.client_id = ?"
		args = append(args, clientID)
	}
	query += " GROUP BY MONTH(s.date) ORDER BY month"

	var out []MonthCount
	err := r.db.SelectContext(ctx, &out, query, args...)
	return out, err
}
