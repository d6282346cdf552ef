package model

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error so callers can pick a remediation path
// (or HTTP status) without matching on message strings.
type Kind string

// Domain error kinds.
const (
	KindValidation      Kind = "VALIDATION"
	KindCompliance      Kind = "COMPLIANCE"
	KindStateTransition Kind = "STATE_TRANSITION"
	KindNotFound        Kind = "NOT_FOUND"
	KindAuthorization   Kind = "AUTHORIZATION"
	KindConflict        Kind = "CONFLICT"
)

// DomainError is a typed business-rule failure raised by the service layer.
type DomainError struct {
	Kind    Kind
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewValidationError reports malformed input rejected before any mutation.
func NewValidationError(format string, args ...any) *DomainError {
	return &DomainError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewComplianceError reports an age-verification failure for an alcohol order.
// Kept distinct from validation so callers can surface the verification flow.
func NewComplianceError(format string, args ...any) *DomainError {
	return &DomainError{Kind: KindCompliance, Message: fmt.Sprintf(format, args...)}
}

// NewStateTransitionError reports an illegal lifecycle status change.
func NewStateTransitionError(format string, args ...any) *DomainError {
	return &DomainError{Kind: KindStateTransition, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError reports a missing order/delivery/payment/driver reference.
func NewNotFoundError(format string, args ...any) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewAuthorizationError reports that the actor lacks the capability for the
// resource. Distinct from not-found so a denied caller learns nothing about
// whether the resource exists.
func NewAuthorizationError(format string, args ...any) *DomainError {
	return &DomainError{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

// NewConflictError reports a duplicate active payment or a contended driver claim.
func NewConflictError(format string, args ...any) *DomainError {
	return &DomainError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a DomainError of the given kind.
func IsKind(err error, kind Kind) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Kind == kind
}

func IsValidation(err error) bool      { return IsKind(err, KindValidation) }
func IsCompliance(err error) bool      { return IsKind(err, KindCompliance) }
func IsStateTransition(err error) bool { return IsKind(err, KindStateTransition) }
func IsNotFound(err error) bool        { return IsKind(err, KindNotFound) }
func IsAuthorization(err error) bool   { return IsKind(err, KindAuthorization) }
func IsConflict(err error) bool        { return IsKind(err, KindConflict) }
