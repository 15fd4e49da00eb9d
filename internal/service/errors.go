package service

import (
	"errors"
	"fmt"
)

// Kind classifies workflow failures.  The HTTP layer maps kinds to status
// codes; the code of an Error doubles as its translation key.
type Kind uint8

const (
	KindNotFound Kind = iota + 1
	KindConflict
	KindInvalidState
	KindTransientIO
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidState:
		return "invalid_state"
	case KindTransientIO:
		return "transient_io"
	}
	return "unknown"
}

// Error is a rejected operation.  It never wraps a partial write: every
// workflow returning one has rolled its transaction back.
type Error struct {
	Kind Kind
	Code string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Code) }

// Is makes errors.Is match on Kind and Code, so wrapped copies still
// compare equal to the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Code == e.Code
}

func newErr(k Kind, code string) *Error { return &Error{Kind: k, Code: code} }

var (
	ErrPartNotFound        = newErr(KindNotFound, "flash_part_not_exist")
	ErrMachineNotFound     = newErr(KindNotFound, "flash_machine_not_exist")
	ErrClientNotFound      = newErr(KindNotFound, "flash_client_not_exist")
	ErrLocationNotFound    = newErr(KindNotFound, "flash_location_not_exist")
	ErrMachineTypeNotFound = newErr(KindNotFound, "flash_machine_type_not_exist")
	ErrUserNotFound        = newErr(KindNotFound, "flash_user_not_exist")
	ErrTaskNotFound        = newErr(KindNotFound, "flash_task_not_exist")
	ErrVisitNotFound       = newErr(KindNotFound, "flash_visit_not_exist")
	ErrTokenNotFound       = newErr(KindNotFound, "flash_invalid_link")

	ErrDuplicateVisit  = newErr(KindConflict, "flash_visit_exist")
	ErrPhoneTaken      = newErr(KindConflict, "flash_tel_exist")
	ErrEmailTaken      = newErr(KindConflict, "flash_email_exists")
	ErrPartNumberTaken = newErr(KindConflict, "flash_part_number")
	ErrSerialTaken     = newErr(KindConflict, "flash_machine_exist")
	ErrNameTaken       = newErr(KindConflict, "flash_name_exists")
	ErrUserExists      = newErr(KindConflict, "flash_user_exists")

	ErrInvalidDate           = newErr(KindInvalidState, "flash_invalid_date")
	ErrIncompatiblePart      = newErr(KindInvalidState, "flash_part_not_fit")
	ErrInsufficientStock     = newErr(KindInvalidState, "flash_invalid_quantity")
	ErrInvalidQuantity       = newErr(KindInvalidState, "flash_quantity_positive")
	ErrServiceDateRegression = newErr(KindInvalidState, "flash_service_date")
	ErrBanknoteRegression    = newErr(KindInvalidState, "flash_banknote_count")
	ErrTokenExpired          = newErr(KindInvalidState, "flash_link_expired")
	ErrTaskCompleted         = newErr(KindInvalidState, "flash_task_already_completed")
	ErrNegativePrice         = newErr(KindInvalidState, "flash_negative_price")
	ErrNoMachineType         = newErr(KindInvalidState, "flash_machine_type")
	ErrInvalidWarranty       = newErr(KindInvalidState, "flash_warranty_years")
	ErrEmptyText             = newErr(KindInvalidState, "flash_field_required")
	ErrPasswordMismatch      = newErr(KindInvalidState, "flash_password_mismatch")
	ErrWrongPassword         = newErr(KindInvalidState, "flash_wrong_password")
	ErrInvalidCredentials    = newErr(KindInvalidState, "flash_login_failed")
	ErrUserInactive          = newErr(KindInvalidState, "flash_user_not_active")
	ErrUserNotVerified       = newErr(KindInvalidState, "flash_user_not_verified")
	ErrSelfDemotion          = newErr(KindInvalidState, "flash_self_demotion")

	ErrMailFailed = newErr(KindTransientIO, "flash_mail_failed")
)

// KindOf returns the kind of a workflow error, or 0 for anything else
// (an unexpected internal fault).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
