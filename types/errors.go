package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Classification is what the request layer tells the caller about a failure.
type Classification string

const (
	ClassClientValidation Classification = "client-validation"
	ClassUnexpected       Classification = "unexpected"
)

// ValidationError reports a missing or malformed field, raised before any read.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NotFoundError reports an identifier that resolves to nothing or to a
// soft-deleted row.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

// InvalidStateError reports an operation attempted while the parent document
// is not in a permitted status.
type InvalidStateError struct {
	Entity    string
	Ref       string
	Operation string
	Status    string
	Allowed   []string
}

func (e *InvalidStateError) Error() string {
	msg := fmt.Sprintf("cannot %s %s %s while status is %q", e.Operation, e.Entity, e.Ref, e.Status)
	if len(e.Allowed) > 0 {
		msg += fmt.Sprintf(" (allowed: %s)", strings.Join(e.Allowed, ", "))
	}
	return msg
}

type BelowMinimumQuantityError struct {
	Item      string
	Requested decimal.Decimal
	Existing  decimal.Decimal
	Minimum   decimal.Decimal
}

func (e *BelowMinimumQuantityError) Shortfall() decimal.Decimal {
	return e.Minimum.Sub(e.Requested).Sub(e.Existing)
}

func (e *BelowMinimumQuantityError) Error() string {
	return fmt.Sprintf("quantity for %s is below the minimum order quantity %s: requested %s, already on order %s, short by %s",
		e.Item, e.Minimum, e.Requested, e.Existing, e.Shortfall())
}

// InsufficientQuantityError reports a pick or put that exceeds what is
// physically (bin) or administratively (line pending) available.
type InsufficientQuantityError struct {
	Item      string
	Source    string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("insufficient quantity of %s in %s: requested %s, available %s",
		e.Item, e.Source, e.Requested, e.Available)
}

type CapacityExceededError struct {
	Bin       string
	Item      string
	Requested decimal.Decimal
	Remaining decimal.Decimal
	Max       decimal.Decimal
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("bin %s cannot take %s of %s: remaining capacity %s of %s",
		e.Bin, e.Requested, e.Item, e.Remaining, e.Max)
}

// BinConflictError reports a deposit whose identity differs from the lot
// already occupying a partial bin.
type BinConflictError struct {
	Bin       string
	Field     string
	Existing  string
	Requested string
}

func (e *BinConflictError) Error() string {
	return fmt.Sprintf("bin %s already holds %s %q, cannot mix with %q", e.Bin, e.Field, e.Existing, e.Requested)
}

// UnexpectedError wraps store failures and anything not in the domain taxonomy.
type UnexpectedError struct {
	Op  string
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UnexpectedError) Unwrap() error { return e.Err }

// IsDomainError reports whether err (or anything it wraps) belongs to the
// client-facing taxonomy.
func IsDomainError(err error) bool {
	var (
		ve *ValidationError
		nf *NotFoundError
		is *InvalidStateError
		bm *BelowMinimumQuantityError
		iq *InsufficientQuantityError
		ce *CapacityExceededError
		bc *BinConflictError
	)
	return errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &is) ||
		errors.As(err, &bm) || errors.As(err, &iq) || errors.As(err, &ce) || errors.As(err, &bc)
}

// WrapUnexpected passes domain errors through and wraps everything else with
// the failing operation name.
func WrapUnexpected(op string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UnexpectedError
	if IsDomainError(err) || errors.As(err, &ue) {
		return err
	}
	return &UnexpectedError{Op: op, Err: err}
}

func Classify(err error) Classification {
	if IsDomainError(err) {
		return ClassClientValidation
	}
	return ClassUnexpected
}

// ErrorKind is a short label used for metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.As(err, new(*ValidationError)):
		return "validation"
	case errors.As(err, new(*NotFoundError)):
		return "not_found"
	case errors.As(err, new(*InvalidStateError)):
		return "invalid_state"
	case errors.As(err, new(*BelowMinimumQuantityError)):
		return "below_minimum"
	case errors.As(err, new(*InsufficientQuantityError)):
		return "insufficient_quantity"
	case errors.As(err, new(*CapacityExceededError)):
		return "capacity_exceeded"
	case errors.As(err, new(*BinConflictError)):
		return "bin_conflict"
	default:
		return "unexpected"
	}
}
