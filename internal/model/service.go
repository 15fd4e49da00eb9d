package model

import "time"

// Service is one maintenance visit on a machine.  Per machine, both Date
// and BnCount never decrease from one record to the next.
type Service struct {
    ID        uint64    `json:"id"`
    Date      time.Time `json:"date"`
    MachineID uint64    `json:"machine_id"`
    BnCount   uint64    `json:"bn_count"`
    Note      string    `json:"note"`
    UserID    *uint64   `json:"user_id,omitempty"`
    CreatedAt time.Time `json:"created_at"`
}

// PartsReplaced records parts taken from an inventory row and fitted to a
// machine.  Rows are append-only.
type PartsReplaced struct {
    ID          uint64    `json:"id"`
    Date        time.Time `json:"date"`
    PartID      uint64    `json:"part_id"`
    Quantity    int       `json:"quantity"`
    MachineID   uint64    `json:"machine_id"`
    Warranty    bool      `json:"warranty"`
    InventoryID uint64    `json:"inventory_id"`
    UserID      *uint64   `json:"user_id,omitempty"`
    CreatedAt   time.Time `json:"created_at"`
}
