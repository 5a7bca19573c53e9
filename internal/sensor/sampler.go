package sensor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"echotree.klederson.com/internal/config"
	"echotree.klederson.com/internal/log"
	"echotree.klederson.com/internal/proximity"
)

// Ranger measures one raw distance for a zone, in centimeters.
type Ranger interface {
	Range(zone int) (float64, error)
}

// Notifier receives every zone's smoothed distance after it is stored.
type Notifier interface {
	Notify(zone int, distance float64) error
}

// Sampler runs the round-robin sampling pass over all zones, smoothing raw
// readings and publishing them to the shared state. It lives for one
// session; its histories start over at the sentinel distance.
type Sampler struct {
	ranger    Ranger
	state     *proximity.State
	notifier  Notifier
	histories []*proximity.History
	settle    time.Duration

	passes atomic.Uint64
}

// NewSampler creates a sampler for every zone in state.
func NewSampler(r Ranger, state *proximity.State, n Notifier, history int, settle time.Duration) *Sampler {
	hs := make([]*proximity.History, state.Zones())
	for i := range hs {
		hs[i] = proximity.NewHistory(history)
		hs[i].Fill(config.MaxRangeCM)
	}
	return &Sampler{
		ranger:    r,
		state:     state,
		notifier:  n,
		histories: hs,
		settle:    settle,
	}
}

// Run samples all zones until ctx is cancelled or a zone fails fatally.
func (s *Sampler) Run(ctx context.Context) error {
	log.Info("sampler: running", "zones", len(s.histories), "history", s.histories[0].Cap())
	for {
		if err := s.SampleAll(ctx); err != nil {
			return err
		}
	}
}

// SampleAll does one pass over the zones in configured order.
func (s *Sampler) SampleAll(ctx context.Context) error {
	for zone := range s.histories {
		if err := s.SampleZone(ctx, zone); err != nil {
			return err
		}
	}
	if n := s.passes.Add(1); n%500 == 0 {
		log.Debug("sampler: passes", "count", n, "distances", s.state.Snapshot())
	}
	return nil
}

// SampleZone waits out the settle delay, reads one raw distance, folds it
// into the zone's history and publishes the mean.
func (s *Sampler) SampleZone(ctx context.Context, zone int) error {
	if err := sleepCtx(ctx, s.settle); err != nil {
		return err
	}

	raw, err := s.ranger.Range(zone)
	if err != nil {
		return fmt.Errorf("sampler: zone %d: %w", zone, err)
	}

	h := s.histories[zone]
	h.Push(raw)
	smoothed := h.Mean()
	s.state.Set(zone, smoothed)

	if s.notifier != nil {
		if err := s.notifier.Notify(zone, smoothed); err != nil {
			return fmt.Errorf("sampler: zone %d notify: %w", zone, err)
		}
	}
	return nil
}

// Passes returns the number of completed passes.
func (s *Sampler) Passes() uint64 {
	return s.passes.Load()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
