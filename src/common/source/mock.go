package source

import (
	"context"
	"time"

	"github.com/emilsandberg/sl-board/src/common/config"
	"github.com/emilsandberg/sl-board/src/common/types"
)

// mockStrategy is the floor of the chain: deterministic departures so the
// board still renders with every upstream path down. The payload mirrors the
// live wire shape and runs through the same normalization.
type mockStrategy struct {
	cfg *config.Config
}

func (s *mockStrategy) Name() string {
	return "mock"
}

func (s *mockStrategy) Attempt(ctx context.Context) (types.Snapshot, error) {
	now := time.Now().In(s.cfg.Location).Truncate(time.Second)

	payload := types.SLSiteResponse{
		Departures: []types.SLDeparture{
			mockDeparture(s.cfg.BusLine, "Fridhemsplan", now, 4, true),
			mockDeparture(s.cfg.BusLine, "Fridhemsplan", now, 9, false),
			mockDeparture(s.cfg.BusLine, "Stora Essingen", now, 12, true),
			mockDeparture(s.cfg.BusLine, "Stora Essingen", now, 22, false),
		},
	}

	return types.NewSnapshot(Normalize(payload, s.cfg, now), types.SourceMock, now), nil
}

func mockDeparture(line, destination string, now time.Time, minutes int, deviated bool) types.SLDeparture {
	expected := now.Add(time.Duration(minutes) * time.Minute)
	scheduled := expected
	if deviated {
		scheduled = expected.Add(-1 * time.Minute)
	}

	return types.SLDeparture{
		Destination: destination,
		Line:        types.SLLine{Designation: line, TransportMode: "BUS"},
		Scheduled:   scheduled.Format(types.SLTimeLayout),
		Expected:    expected.Format(types.SLTimeLayout),
	}
}
