package types

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// SLTimeLayout is the naive local-time layout the SL Transport API uses for
// departure timestamps.
const SLTimeLayout = "2006-01-02T15:04:05"

// SLSiteResponse is the wire shape of the site departures endpoint.
type SLSiteResponse struct {
	Departures []SLDeparture `json:"departures"`
}

type SLDeparture struct {
	Destination string        `json:"destination"`
	Direction   string        `json:"direction"`
	State       string        `json:"state"`
	Display     string        `json:"display"`
	Scheduled   string        `json:"scheduled"`
	Expected    string        `json:"expected"`
	Planned     string        `json:"planned"`
	Line        SLLine        `json:"line"`
	Deviations  []SLDeviation `json:"deviations"`
}

// SLLine is normally an object, but some proxy paths flatten it to a bare
// designation string.
type SLLine struct {
	ID            int    `json:"id"`
	Designation   string `json:"designation"`
	TransportMode string `json:"transport_mode"`
	GroupOfLines  string `json:"group_of_lines"`
}

func (l *SLLine) UnmarshalJSON(data []byte) error {
	var designation string
	if err := json.Unmarshal(data, &designation); err == nil {
		*l = SLLine{Designation: designation}
		return nil
	}

	type plain SLLine
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*l = SLLine(obj)
	return nil
}

type SLDeviation struct {
	ImportanceLevel int    `json:"importance_level"`
	Consequence     string `json:"consequence"`
	Message         string `json:"message"`
}

// ParseSLTime reads an upstream timestamp, which is usually naive local time
// but may carry an offset when it has passed through a proxy.
func ParseSLTime(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(SLTimeLayout, value, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
