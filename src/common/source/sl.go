package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	json "github.com/goccy/go-json"

	"github.com/emilsandberg/sl-board/src/common/config"
	"github.com/emilsandberg/sl-board/src/common/types"
)

// Strategy is one tier of the fetch chain.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context) (types.Snapshot, error)
}

type directStrategy struct {
	client *http.Client
	cfg    *config.Config
}

func (s *directStrategy) Name() string {
	return "direct"
}

func (s *directStrategy) Attempt(ctx context.Context) (types.Snapshot, error) {
	body, err := fetchBody(ctx, s.client, departuresURL(s.cfg))
	if err != nil {
		return types.Snapshot{}, unavailable(s.Name(), err)
	}
	return buildSnapshot(s.Name(), body, types.SourceLive, s.cfg)
}

func departuresURL(cfg *config.Config) string {
	return fmt.Sprintf("%s/sites/%s/departures?transport=BUS&line=%s&forecast=%d",
		cfg.BaseURL, cfg.SiteID, url.QueryEscape(cfg.BusLine), cfg.ForecastMinutes)
}

func fetchBody(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func buildSnapshot(strategy string, body []byte, src types.Source, cfg *config.Config) (types.Snapshot, error) {
	var payload types.SLSiteResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return types.Snapshot{}, parseFailure(strategy, err)
	}

	now := time.Now().In(cfg.Location)
	return types.NewSnapshot(Normalize(payload, cfg, now), src, now), nil
}

// Normalize turns the upstream payload into the board's departure list: only
// the configured line, soonest first, capped, with whole-minute countdowns
// clamped at zero.
func Normalize(payload types.SLSiteResponse, cfg *config.Config, now time.Time) []types.Departure {
	departures := make([]types.Departure, 0, len(payload.Departures))

	for _, dep := range payload.Departures {
		if dep.Line.Designation != cfg.BusLine {
			continue
		}

		scheduledRaw := dep.Scheduled
		if scheduledRaw == "" {
			scheduledRaw = dep.Planned
		}
		expectedRaw := dep.Expected
		if expectedRaw == "" {
			expectedRaw = scheduledRaw
		}
		if expectedRaw == "" {
			continue
		}

		expected, err := types.ParseSLTime(expectedRaw, cfg.Location)
		if err != nil {
			continue
		}
		scheduled, err := types.ParseSLTime(scheduledRaw, cfg.Location)
		if err != nil {
			scheduled = expected
		}

		departures = append(departures, types.Departure{
			Line:             dep.Line.Designation,
			Destination:      dep.Destination,
			ScheduledTime:    scheduled,
			ExpectedTime:     expected,
			MinutesUntil:     minutesUntil(now, expected),
			DisplayDeviation: !expected.Equal(scheduled) || len(dep.Deviations) > 0,
		})
	}

	sort.SliceStable(departures, func(i, j int) bool {
		return departures[i].ExpectedTime.Before(departures[j].ExpectedTime)
	})

	if len(departures) > cfg.MaxDepartures {
		departures = departures[:cfg.MaxDepartures]
	}

	return departures
}

func minutesUntil(now, expected time.Time) int {
	mins := int(expected.Sub(now).Minutes())
	if mins < 0 {
		return 0
	}
	return mins
}
