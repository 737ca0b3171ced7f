package session

import (
	"context"
	"log/slog"
	"time"
)

// Reaper periodically deletes sessions whose refresh token has expired.
// Such rows can no longer be refreshed, and their access token expired
// earlier still.
type Reaper struct {
	store    Store
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time

	// OnReap, when set, is called with the number of rows removed by each sweep.
	OnReap func(n int64)
}

func NewReaper(store Store, interval time.Duration, log *slog.Logger) *Reaper {
	if log == nil {
		log = slog.Default()
	}
	return &Reaper{store: store, interval: interval, log: log, now: time.Now}
}

// ReapOnce deletes every session whose refresh expiry is before now.
func (r *Reaper) ReapOnce(ctx context.Context, now time.Time) (int64, error) {
	n, err := r.store.DeleteWhere(ctx, Filter{RefreshExpiredBefore: now.UnixMilli()})
	if err != nil {
		return 0, err
	}
	if r.OnReap != nil {
		r.OnReap(n)
	}
	return n, nil
}

// Run sweeps every interval until ctx is done. A non-positive interval
// returns immediately.
func (r *Reaper) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}

	t := time.NewTicker(r.interval)
	defer t.Stop()

	r.log.Info("session.reaper.start", "interval", r.interval.String())
	for {
		select {
		case <-ctx.Done():
			r.log.Info("session.reaper.stop")
			return
		case <-t.C:
			n, err := r.ReapOnce(ctx, r.now())
			if err != nil {
				r.log.Error("session.reaper.fail", "err", err)
				continue
			}
			if n > 0 {
				r.log.Info("session.reaper.deleted", "count", n)
			}
		}
	}
}
