package source

import "fmt"

// FailureKind separates unreachable upstreams from unreadable payloads. Both
// advance the chain; the distinction only matters for logs and metrics.
type FailureKind int

const (
	KindUnavailable FailureKind = iota
	KindParse
)

func (k FailureKind) String() string {
	if k == KindParse {
		return "parse"
	}
	return "unavailable"
}

// FetchError records why a single strategy attempt failed.
type FetchError struct {
	Strategy string
	Kind     FailureKind
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Strategy, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func unavailable(strategy string, err error) *FetchError {
	return &FetchError{Strategy: strategy, Kind: KindUnavailable, Err: err}
}

func parseFailure(strategy string, err error) *FetchError {
	return &FetchError{Strategy: strategy, Kind: KindParse, Err: err}
}
