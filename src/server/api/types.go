package api

import (
	"time"

	"github.com/emilsandberg/sl-board/src/common/types"
)

type ErrorResponse struct {
	Error   string  `json:"error"`
	Message string  `json:"message"`
	Stack   *string `json:"stack,omitempty"`
}

type HealthResponse struct {
	Status      string       `json:"status"`
	Version     string       `json:"version"`
	Connections int          `json:"connections"`
	Departures  int          `json:"departures"`
	Source      types.Source `json:"source,omitempty"`
	Stale       bool         `json:"stale"`
	FetchedAt   *time.Time   `json:"fetched_at,omitempty"`
}

type RootResponse struct {
	Service   string            `json:"service"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
	Timestamp time.Time         `json:"timestamp"`
}
