package domain

import "errors"

// ErrorKind classifies a workflow failure by how a caller should react.
type ErrorKind string

const (
	KindValidation    ErrorKind = "VALIDATION"    // fix the input and retry
	KindPrecondition  ErrorKind = "PRECONDITION"  // re-read state, then decide
	KindConflict      ErrorKind = "CONFLICT"      // retry with fresh reads
	KindAuthorization ErrorKind = "AUTHORIZATION" // needs a different actor
	KindDependency    ErrorKind = "DEPENDENCY"    // retryable, nothing was committed
	KindNotFound      ErrorKind = "NOT_FOUND"
	KindInternal      ErrorKind = "INTERNAL"
)

// WorkflowError is a typed failure returned by the engine. The package-level
// values are sentinels; wrap them with fmt.Errorf("%w: ...") to add detail
// and match them with errors.Is.
type WorkflowError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *WorkflowError) Error() string {
	return e.Message
}

func newErr(kind ErrorKind, code, msg string) *WorkflowError {
	return &WorkflowError{Kind: kind, Code: code, Message: msg}
}

var (
	// Validation
	ErrInvalidAmount   = newErr(KindValidation, "INVALID_AMOUNT", "amount must be a positive integer")
	ErrMissingProof    = newErr(KindValidation, "MISSING_PROOF", "a proof file is required")
	ErrInvalidInput    = newErr(KindValidation, "INVALID_INPUT", "invalid input")
	ErrInvalidDecision = newErr(KindValidation, "INVALID_DECISION", "decision must be APPROVE or REJECT")

	// Precondition
	ErrAlreadyAssigned    = newErr(KindPrecondition, "ALREADY_ASSIGNED", "tenant already occupies a unit")
	ErrAlreadyPending     = newErr(KindPrecondition, "ALREADY_PENDING", "tenant already has an outstanding access request")
	ErrRequestNotPending  = newErr(KindPrecondition, "REQUEST_NOT_PENDING", "tenant has no pending request for this estate")
	ErrUnitNotVacant      = newErr(KindPrecondition, "UNIT_NOT_VACANT", "unit is not vacant")
	ErrUnitNotInEstate    = newErr(KindPrecondition, "UNIT_NOT_IN_ESTATE", "unit does not belong to the tenant's requested estate")
	ErrUnitOccupied       = newErr(KindPrecondition, "UNIT_OCCUPIED", "unit is occupied")
	ErrUnitNotOccupied    = newErr(KindPrecondition, "UNIT_NOT_OCCUPIED", "unit has no occupant")
	ErrAlreadyDecided     = newErr(KindPrecondition, "ALREADY_DECIDED", "payment has already been decided")
	ErrInvalidTransition  = newErr(KindPrecondition, "INVALID_TRANSITION", "status transition is not allowed")
	ErrNoAssignedUnit     = newErr(KindPrecondition, "NO_ASSIGNED_UNIT", "tenant has no assigned unit")
	ErrEstateAlreadyOwned = newErr(KindPrecondition, "ESTATE_ALREADY_EXISTS", "manager already owns an estate")
	ErrAlreadyRegistered  = newErr(KindPrecondition, "ALREADY_REGISTERED", "account is already registered")

	// Not found
	ErrEstateNotFound  = newErr(KindNotFound, "ESTATE_NOT_FOUND", "estate not found")
	ErrPersonNotFound  = newErr(KindNotFound, "PERSON_NOT_FOUND", "person not found")
	ErrUnitNotFound    = newErr(KindNotFound, "UNIT_NOT_FOUND", "unit not found")
	ErrPaymentNotFound = newErr(KindNotFound, "PAYMENT_NOT_FOUND", "payment not found")
	ErrTicketNotFound  = newErr(KindNotFound, "TICKET_NOT_FOUND", "ticket not found")
	ErrRecordNotFound  = newErr(KindNotFound, "NOT_FOUND", "record not found")

	// Conflict
	ErrConflict            = newErr(KindConflict, "CONFLICT", "record changed concurrently, re-read and retry")
	ErrJoinCodeUnavailable = newErr(KindConflict, "JOIN_CODE_UNAVAILABLE", "no free join code was found, retry")

	// Authorization
	ErrForbidden       = newErr(KindAuthorization, "FORBIDDEN", "actor is not allowed to perform this operation")
	ErrUnauthenticated = newErr(KindAuthorization, "UNAUTHENTICATED", "no authenticated actor")

	// Dependency
	ErrUploadFailed     = newErr(KindDependency, "UPLOAD_FAILED", "artifact upload failed")
	ErrStoreUnavailable = newErr(KindDependency, "STORE_UNAVAILABLE", "directory store unavailable")

	// Internal
	ErrInconsistentState = newErr(KindInternal, "INCONSISTENT_STATE", "stored records violate an occupancy invariant")
)

// KindOf returns the kind of the first WorkflowError in err's chain, or
// KindInternal when err carries none.
func KindOf(err error) ErrorKind {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we.Kind
	}
	return KindInternal
}

// CodeOf returns the stable code of the first WorkflowError in err's chain.
func CodeOf(err error) string {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we.Code
	}
	return "INTERNAL"
}

// Retryable reports whether the same command may be reissued unchanged.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindConflict, KindDependency:
		return true
	}
	return false
}
