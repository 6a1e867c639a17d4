package engine

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every core operation. Callers wrap these with
// detail and match them with errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrPermission     = errors.New("permission denied")
	ErrValidation     = errors.New("validation failed")
	ErrDuplicateVote  = errors.New("already voted with this priority")
	ErrDuplicateBadge = errors.New("user already has this badge")
	ErrInvalidBadge   = errors.New("invalid badge")
)

// ErrInvalidParent is the validation failure for a reply whose parent
// comment belongs to a different issue.
var ErrInvalidParent = fmt.Errorf("%w: parent comment does not belong to the specified issue", ErrValidation)

// ErrNestedReply rejects a reply whose parent is itself a reply. Threads are
// one level deep.
var ErrNestedReply = fmt.Errorf("%w: cannot reply to a reply", ErrValidation)

// NotFound wraps ErrNotFound for a missing entity of the given kind.
func NotFound(kind string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, kind)
}

// Forbidden wraps ErrPermission with the reason shown to the caller.
func Forbidden(reason string) error {
	return fmt.Errorf("%w: %s", ErrPermission, reason)
}

// Invalid wraps ErrValidation with a formatted reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
