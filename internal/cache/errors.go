package cache

import "fmt"

// RateLimitError reports that the upstream admission window is exhausted.
// The fetch function was never invoked; the caller may retry after the
// window rolls over.
type RateLimitError struct {
	Limit int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d requests/minute limit reached", e.Limit)
}

// FetchError wraps a failure of the caller-supplied fetch function.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return "upstream fetch failed: " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// DecodeError reports that a freshly fetched payload did not match the
// expected shape. The payload is never cached; this points at an upstream
// schema problem, not a transient fault.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "decode fetched payload: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
