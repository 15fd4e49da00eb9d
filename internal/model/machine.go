package model

import "time"

// MachineType groups machines of the same model.  Parts declare the
// machine types they fit through the part_machine_types join table.
type MachineType struct {
    ID   uint64 `json:"id"`
    Name string `json:"name"`
}

// Machine is a single serviced unit installed at a client.  The relations
// are plain foreign-key columns; related rows are fetched by query.
//
// EndOfWarranty is fixed at creation: StartOfOperation plus the number of
// warranty years the machine was sold with.
type Machine struct {
    ID               uint64    `json:"id"`                 // machines.id
    SerialNumber     string    `json:"serial_number"`      // machines.serial_number (unique)
    StartOfOperation time.Time `json:"start_of_operation"` // machines.start_of_operation (DATE)
    EndOfWarranty    time.Time `json:"end_of_warranty"`    // machines.end_of_warranty (DATE)
    MachineTypeID    uint64    `json:"machine_type_id"`    // machines.machine_type_id
    ClientID         uint64    `json:"client_id"`          // machines.client_id
    IsActive         bool      `json:"is_active"`          // machines.is_active
}

// UnderWarranty reports whether a date falls inside the inclusive window
// [StartOfOperation, EndOfWarranty].  Only the calendar day is compared.
func (m Machine) UnderWarranty(date time.Time) bool {
    d := DateOnly(date)
    return !d.Before(DateOnly(m.StartOfOperation)) && !d.After(DateOnly(m.EndOfWarranty))
}

// DateOnly truncates t to midnight UTC of the same calendar day.
func DateOnly(t time.Time) time.Time {
    y, mo, d := t.Date()
    return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
