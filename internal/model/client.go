package model

// Client represents a row in the `clients` table: a company that owns one
// or more machines.  Phone number and email are unique across clients.
type Client struct {
    ID            uint64 `json:"id"`             // clients.id
    Company       string `json:"company"`        // clients.company
    Address       string `json:"address"`        // clients.address
    City          string `json:"city"`           // clients.city
    ContactPerson string `json:"contact_person"` // clients.contact_person
    PhoneNumber   string `json:"phone_number"`   // clients.phone_number (unique)
    Email         string `json:"email"`          // clients.email (unique, stored lower-case)
}
