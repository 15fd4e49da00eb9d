package model

import "github.com/shopspring/decimal"

// Part is a spare part from the catalogue.  Names are kept per language;
// Name picks the one matching the request language.
type Part struct {
    ID             uint64          `json:"id"`
    PartNumber     string          `json:"part_number"`
    NameEN         string          `json:"name_en"`
    NameLT         string          `json:"name_lt"`
    Price          decimal.Decimal `json:"price"`
    MachineTypeIDs []uint64        `json:"machine_type_ids,omitempty"`
}

// Name returns the localized part name, defaulting to Lithuanian.
func (p Part) Name(lang string) string {
    if lang == "en" {
        return p.NameEN
    }
    return p.NameLT
}

// Location is a stock location (warehouse, service van, ...).
type Location struct {
    ID         uint64 `json:"id"`
    LocationEN string `json:"location_en"`
    LocationLT string `json:"location_lt"`
}

func (l Location) Name(lang string) string {
    if lang == "en" {
        return l.LocationEN
    }
    return l.LocationLT
}

// Inventory is the stock of one part at one location.  There is at most one
// row per (PartID, LocationID) and Quantity never drops below zero.
type Inventory struct {
    ID         uint64 `json:"id"`
    PartID     uint64 `json:"part_id"`
    LocationID uint64 `json:"location_id"`
    Quantity   int    `json:"quantity"`
}
