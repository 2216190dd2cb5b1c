package reminder

import "errors"

var (
	// ErrParse marks a time expression the parser could not resolve.
	// The message is safe to surface verbatim to the user.
	ErrParse = errors.New("time parse")

	// ErrRecurrence marks a malformed recurrence descriptor.
	ErrRecurrence = errors.New("recurrence parse")
)
