package source

import (
	"errors"
	"fmt"
)

// Class partitions fetch failures by how the poll loop must react.
type Class int

const (
	// Transient covers transport errors, parse errors and any status the
	// feed does not call out specially.
	Transient Class = iota
	// RateLimited is an HTTP 429 from the feed.
	RateLimited
	// Forbidden is an HTTP 403 (or 401 on token-gated feeds).
	Forbidden
)

func (c Class) String() string {
	switch c {
	case RateLimited:
		return "rate-limited"
	case Forbidden:
		return "forbidden"
	default:
		return "transient"
	}
}

// Error is a classified fetch failure.
type Error struct {
	Class Class
	URL   string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source: %s from %s: %v", e.Class, e.URL, e.Err)
	}
	return fmt.Sprintf("source: %s from %s", e.Class, e.URL)
}

func (e *Error) Unwrap() error { return e.Err }

// ClassOf extracts the failure class; anything unclassified is Transient.
func ClassOf(err error) Class {
	var se *Error
	if errors.As(err, &se) {
		return se.Class
	}
	return Transient
}

// IsRateLimit reports whether err belongs to the rate-limit class.
// 429 and 403 get the same backoff treatment in the loop.
func IsRateLimit(err error) bool {
	c := ClassOf(err)
	return c == RateLimited || c == Forbidden
}
