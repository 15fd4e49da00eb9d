package model

import "time"

// User represents an application user record as stored in the `users`
// table.  It carries the password hash and has no json tags; handlers
// define their own response types.
//
// Fields:
//  IsAdmin    – grants access to the admin-only routes.
//  IsActive   – inactive users cannot log in.
//  IsVerified – cleared when the user changes email; unverified users
//               cannot log in until they follow the verification link.
type User struct {
    ID           uint64    // users.id
    Name         string    // users.name
    Surname      string    // users.surname
    PhoneNumber  string    // users.phone_number (unique)
    Email        string    // users.email (unique)
    PasswordHash string    // users.password_hash
    IsAdmin      bool      // users.is_admin
    IsActive     bool      // users.is_active
    IsVerified   bool      // users.is_verified
    CreatedAt    time.Time // users.created_at
}

// FullName joins name and surname for log lines and mail greetings.
func (u User) FullName() string {
    if u.Surname == "" {
        return u.Name
    }
    return u.Name + " " + u.Surname
}
