package model

import "time"

// Visit is a scheduled visit to a client.  (ClientID, Date) is unique.
type Visit struct {
    ID       uint64    `json:"id"`
    ClientID uint64    `json:"client_id"`
    Date     time.Time `json:"date"`
    Purpose  string    `json:"purpose"`
}

// Task is an internal to-do item.  IsCompleted flips false -> true once;
// CompletedAt and CompletedBy are only set at that moment.
type Task struct {
    ID          uint64     `json:"id"`
    Text        string     `json:"task"`
    UserID      *uint64    `json:"user_id,omitempty"`
    CreatedAt   time.Time  `json:"created_at"`
    IsCompleted bool       `json:"is_completed"`
    CompletedAt *time.Time `json:"completed_at,omitempty"`
    CompletedBy *uint64    `json:"completed_by,omitempty"`
}
