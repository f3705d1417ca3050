package engine

import "errors"

// Every failure the engine can produce is one of these four kinds. They are
// recovered at the router boundary and reported only to the connection that
// caused them.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("message not found")
	ErrPermission = errors.New("permission denied")
	ErrNotJoined  = errors.New("not joined to a room")
)

// Wire codes for rejection notices.
const (
	CodeValidation = "validation_error"
	CodeNotFound   = "not_found"
	CodePermission = "permission_denied"
	CodeNotJoined  = "not_joined"
	CodeUnknown    = "unknown"
)

// Code maps an engine error to its stable wire code.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrPermission):
		return CodePermission
	case errors.Is(err, ErrNotJoined):
		return CodeNotJoined
	default:
		return CodeUnknown
	}
}
