package domain

import (
	"errors"
	"fmt"
)

// Relay error taxonomy. The HTTP layer maps these to status codes and
// machine-readable error codes via ErrorCode.
var (
	// ErrInvalidReference is returned when a continuation token is
	// malformed, tampered with, or encrypted for a different stage.
	ErrInvalidReference = errors.New("invalid continuation reference")

	// ErrExpired is returned when a token decodes cleanly but its staged
	// record is gone (TTL elapsed or it never existed). Clients recover by
	// restarting the workflow from the search stage.
	ErrExpired = errors.New("staged result expired")

	// ErrCorruptRecord is returned when a staged record is present but
	// cannot be deserialized. This indicates a defect, not a timing
	// condition, and is kept distinct from ErrExpired.
	ErrCorruptRecord = errors.New("staged record is corrupt")

	// ErrUnknownItem is returned when a selection names an item id that is
	// not present in the staged result set it refers to.
	ErrUnknownItem = errors.New("selected item not in staged results")

	// ErrNotFound is returned by durable lookups for absent records.
	ErrNotFound = errors.New("record not found")
)

// CollaboratorError wraps a failure of an external collaborator (search
// provider, payment gateway). ClientFault marks structured provider errors
// caused by the request itself; those surface as client errors with the
// provider's detail forwarded, everything else is a server-side failure.
type CollaboratorError struct {
	Collaborator string
	Detail       string
	ClientFault  bool
	Err          error
}

func (e *CollaboratorError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Collaborator, e.Detail)
	}
	return fmt.Sprintf("%s: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// Machine-readable error codes exposed on the wire.
const (
	CodeInvalidReference = "invalid_reference"
	CodeExpired          = "search_result_expiry"
	CodeCorruptRecord    = "corrupt_record"
	CodeUnknownItem      = "unknown_item"
	CodeNotFound         = "not_found"
	CodeCollaborator     = "collaborator_error"
	CodeInternal         = "internal_error"
)

// ErrorCode maps an error to its wire code.
func ErrorCode(err error) string {
	var collab *CollaboratorError
	switch {
	case errors.Is(err, ErrInvalidReference):
		return CodeInvalidReference
	case errors.Is(err, ErrExpired):
		return CodeExpired
	case errors.Is(err, ErrCorruptRecord):
		return CodeCorruptRecord
	case errors.Is(err, ErrUnknownItem):
		return CodeUnknownItem
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.As(err, &collab):
		return CodeCollaborator
	default:
		return CodeInternal
	}
}
