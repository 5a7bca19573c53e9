package light

import (
	"context"
	"math/rand"
	"sync"

	"echotree.klederson.com/internal/config"
	"echotree.klederson.com/internal/log"
	"echotree.klederson.com/internal/proximity"
)

// DistanceReader gives the animator each zone's latest smoothed distance.
type DistanceReader interface {
	Distance(zone int) float64
}

// Options tune the animation.
type Options struct {
	Palette             []Color
	BaseSparkChance     float64
	MaxSparkChance      float64
	Speed               int
	RebaseChance        float64
	SimilarityThreshold int
	GreenUsesRed        bool
}

// OptionsFrom builds Options from the installation file.
func OptionsFrom(c config.AnimationConfig) Options {
	return Options{
		Palette:             Palette,
		BaseSparkChance:     c.BaseSparkChance,
		MaxSparkChance:      c.MaxSparkChance,
		Speed:               c.Speed,
		RebaseChance:        c.RebaseChance,
		SimilarityThreshold: c.SimilarityThreshold,
		GreenUsesRed:        c.GreenUsesRed,
	}
}

// zoneLight is one zone's target color and its trail of emitted colors,
// newest first.
type zoneLight struct {
	base  Color
	cells []Color
	spark float64
}

// ZoneView is what the monitor shows of a zone.
type ZoneView struct {
	Base        Color
	Lead        Color
	SparkChance float64
}

// Animator runs the per-zone color state machine. Each zone drifts towards
// its base color, flashes palette sparks more often the closer someone
// stands, and now and then picks a new base. Frames are paced by the sink:
// a frame is computed as soon as the previous flush returns.
type Animator struct {
	opts   Options
	layout Layout
	strip  *Strip
	dist   DistanceReader
	rng    *rand.Rand

	mu    sync.RWMutex
	zones []zoneLight
}

// NewAnimator seeds every zone with a random base color and a trail that
// already shows it.
func NewAnimator(layout Layout, strip *Strip, dist DistanceReader, opts Options, rng *rand.Rand) *Animator {
	if len(opts.Palette) == 0 {
		opts.Palette = Palette
	}
	a := &Animator{
		opts:   opts,
		layout: layout,
		strip:  strip,
		dist:   dist,
		rng:    rng,
		zones:  make([]zoneLight, layout.Zones),
	}
	for i := range a.zones {
		base := RandomColor(rng, opts.Palette)
		cells := make([]Color, layout.PerZone())
		for j := range cells {
			cells[j] = base
		}
		a.zones[i] = zoneLight{base: base, cells: cells, spark: opts.BaseSparkChance}
	}
	return a
}

// SparkChance is the per-frame spark probability at distance.
func (a *Animator) SparkChance(distance float64) float64 {
	return a.opts.BaseSparkChance + proximity.Normalize(distance, a.opts.MaxSparkChance-a.opts.BaseSparkChance)
}

// Run renders frames until ctx is done or the strip fails.
func (a *Animator) Run(ctx context.Context) error {
	log.Info("light: animator running", "zones", a.layout.Zones, "leds", a.layout.Len())
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.Frame(); err != nil {
			return err
		}
	}
}

// Frame steps every zone once.
func (a *Animator) Frame() error {
	for z := range a.zones {
		if err := a.StepZone(z); err != nil {
			return err
		}
	}
	return nil
}

// StepZone computes zone's next leading color, shifts it into the trail,
// writes the trail to the zone's range and flushes the strip.
func (a *Animator) StepZone(zone int) error {
	spark := a.SparkChance(a.dist.Distance(zone))

	a.mu.Lock()
	zl := &a.zones[zone]
	if a.rng.Float64() < a.opts.RebaseChance {
		zl.base = RandomColor(a.rng, a.opts.Palette)
	}
	zl.spark = spark

	lead := zl.cells[0]
	var next Color
	switch {
	case a.rng.Float64() < spark:
		next = RandomColor(a.rng, a.opts.Palette)
	case !ColorsSimilar(lead, zl.base, a.opts.SimilarityThreshold):
		next = stepToward(lead, zl.base, a.opts.Speed, a.opts.GreenUsesRed)
	default:
		next = zl.base
	}

	copy(zl.cells[1:], zl.cells[:len(zl.cells)-1])
	zl.cells[0] = next
	frame := make([]Color, len(zl.cells))
	copy(frame, zl.cells)
	a.mu.Unlock()

	start, _ := a.layout.Zone(zone)
	if err := a.strip.SetRange(start, frame); err != nil {
		return err
	}
	return a.strip.Show()
}

// Zones returns a view of every zone for display.
func (a *Animator) Zones() []ZoneView {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]ZoneView, len(a.zones))
	for i, zl := range a.zones {
		out[i] = ZoneView{Base: zl.base, Lead: zl.cells[0], SparkChance: zl.spark}
	}
	return out
}
