package utils

import (
	"net/http"
	"time"
)

// NewHTTPClient builds the client shared by every upstream fetch strategy.
// The client timeout is a hard ceiling; per-attempt deadlines come from the
// request context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}
