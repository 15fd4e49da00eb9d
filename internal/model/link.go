package model

import "time"

// LinkPurpose scopes a one-time link to the flow that may redeem it.
type LinkPurpose string

const (
    PurposeRegistration      LinkPurpose = "registration"
    PurposeResetPassword     LinkPurpose = "reset_password"
    PurposeEmailVerification LinkPurpose = "email_verification"
)

// Valid reports whether p is one of the known purposes.
func (p LinkPurpose) Valid() bool {
    switch p {
    case PurposeRegistration, PurposeResetPassword, PurposeEmailVerification:
        return true
    }
    return false
}

// SubjectKind tells which field of LinkSubject is meaningful.
type SubjectKind uint8

const (
    SubjectUser  SubjectKind = iota + 1 // an existing account
    SubjectEmail                        // an address that has no account yet
)

// LinkSubject is who a one-time link was issued for.  Registration links
// point at a pending email; every other purpose points at a user id.
type LinkSubject struct {
    Kind   SubjectKind
    UserID uint64
    Email  string
}

func UserSubject(id uint64) LinkSubject      { return LinkSubject{Kind: SubjectUser, UserID: id} }
func EmailSubject(email string) LinkSubject { return LinkSubject{Kind: SubjectEmail, Email: email} }

// OneTimeLink models a row in `one_time_links`.  Only the SHA-256 hash of
// the token is stored, never the token itself.
//
// Fields:
//  TokenHash – hex digest of the raw token handed out by mail.
//  Used      – flips false -> true on the first successful redemption.
//  ExpiresAt – links are rejected after this instant even when unused.
type OneTimeLink struct {
    ID        uint64
    TokenHash string
    Purpose   LinkPurpose
    Subject   LinkSubject
    Used      bool
    CreatedAt time.Time
    ExpiresAt time.Time
}

// Expired reports whether the link is past its expiry at now.
func (l OneTimeLink) Expired(now time.Time) bool { return l.ExpiresAt.Before(now) }
