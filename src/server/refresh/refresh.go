package refresh

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/emilsandberg/sl-board/src/common/cache"
	"github.com/emilsandberg/sl-board/src/common/types"
)

// Source produces a snapshot; prev is what it falls back to when everything
// upstream fails.
type Source interface {
	Fetch(ctx context.Context, prev types.Snapshot) types.Snapshot
}

// Broadcaster fans a completed snapshot out to connected clients.
type Broadcaster interface {
	Broadcast(snap types.Snapshot)
}

// Refresher drives the fetch cycle: one walk per interval, with manual
// triggers collapsing into whatever walk is already in flight. Every
// completion lands in the cache and is broadcast, and pushes the next
// scheduled tick a full interval out.
type Refresher struct {
	source   Source
	store    *cache.Store
	hub      Broadcaster
	interval time.Duration
	logger   *zap.SugaredLogger

	group   singleflight.Group
	fetched chan struct{}
	base    context.Context
}

const refreshKey = "departures"

func New(ctx context.Context, source Source, store *cache.Store, hub Broadcaster, interval time.Duration, logger *zap.SugaredLogger) *Refresher {
	return &Refresher{
		source:   source,
		store:    store,
		hub:      hub,
		interval: interval,
		logger:   logger,
		fetched:  make(chan struct{}, 1),
		base:     ctx,
	}
}

// Refresh performs one fetch, or joins the walk already in flight. The walk
// runs against the refresher's base context, so a caller giving up early
// cannot abort it for everyone else; ctx only bounds this caller's wait.
func (r *Refresher) Refresh(ctx context.Context) (types.Snapshot, error) {
	ch := r.group.DoChan(refreshKey, func() (any, error) {
		return r.fetchOnce(), nil
	})

	select {
	case res := <-ch:
		return res.Val.(types.Snapshot), nil
	case <-ctx.Done():
		return types.Snapshot{}, ctx.Err()
	}
}

func (r *Refresher) fetchOnce() types.Snapshot {
	// shutdown stops the loop, not a walk already in flight
	ctx := context.WithoutCancel(r.base)

	snap := r.source.Fetch(ctx, r.store.Latest())

	r.store.Set(snap)
	r.hub.Broadcast(snap)

	select {
	case r.fetched <- struct{}{}:
	default:
	}

	r.logger.Infow("departures updated",
		"count", len(snap.Departures), "source", snap.Source, "stale", snap.Stale)
	return snap
}

// Run fires a walk every interval, measured from the previous completion,
// until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if _, err := r.Refresh(ctx); err != nil {
				return
			}
		case <-r.fetched:
			// a completion elsewhere resets the countdown
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(r.interval)
	}
}
