package errs

import "errors"

// Kind classifies business-rule failures so transports can map them without
// knowing every domain sentinel.
type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindNotFound   Kind = "NOT_FOUND"
	KindConflict   Kind = "CONFLICT"
	KindState      Kind = "STATE"
)

// Error is a business-rule failure with a stable kind and a human-readable reason.
// Domain packages declare them as package-level sentinels and compare with errors.Is.
type Error struct {
	kind   Kind
	reason string
}

func (e *Error) Error() string  { return e.reason }
func (e *Error) Kind() Kind     { return e.kind }
func (e *Error) Reason() string { return e.reason }

func Validation(reason string) *Error { return &Error{kind: KindValidation, reason: reason} }
func NotFound(reason string) *Error   { return &Error{kind: KindNotFound, reason: reason} }
func Conflict(reason string) *Error   { return &Error{kind: KindConflict, reason: reason} }
func State(reason string) *Error      { return &Error{kind: KindState, reason: reason} }

// KindOf returns the kind of the first *Error found in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.kind, true
	}
	return "", false
}

// ReasonOf returns the reason of the first *Error found in err's chain.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.reason
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
