package light

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"

	"echotree.klederson.com/internal/config"
)

// recordSink records every frame shown
type recordSink struct {
	mu     sync.Mutex
	frames [][]Color
	err    error
}

func (r *recordSink) Show(p []Color) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, append([]Color(nil), p...))
	return nil
}

func (r *recordSink) Close() error { return nil }

type fixedDistances []float64

func (f fixedDistances) Distance(z int) float64 { return f[z] }

func TestColorsSimilar(t *testing.T) {
	tests := []struct {
		a, b Color
		th   int
		want bool
	}{
		{Red, Red, 0, true},
		{Color{100, 100, 100}, Color{110, 90, 105}, 10, true},
		{Color{100, 100, 100}, Color{111, 100, 100}, 10, false},
		{Color{100, 100, 100}, Color{100, 89, 100}, 10, false},
		{Color{100, 100, 100}, Color{100, 100, 120}, 10, false},
		{Red, Yellow, 255, true},
	}
	for _, tt := range tests {
		if got := ColorsSimilar(tt.a, tt.b, tt.th); got != tt.want {
			t.Errorf("ColorsSimilar(%v, %v, %d) = %v, want %v", tt.a, tt.b, tt.th, got, tt.want)
		}
		if got := ColorsSimilar(tt.b, tt.a, tt.th); got != tt.want {
			t.Errorf("ColorsSimilar not symmetric for %v, %v", tt.a, tt.b)
		}
	}
}

func TestStepToward_MovesEachChannelBySpeed(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		c := Color{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))}
		target := Color{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))}
		speed := 1 + rng.Intn(20)

		got := StepToward(c, target, speed)
		check := func(name string, cur, tgt, out uint8) {
			want := int(cur) - speed
			if tgt > cur {
				want = int(cur) + speed
			}
			want = int(math.Max(0, math.Min(255, float64(want))))
			if int(out) != want {
				t.Fatalf("%s: step(%d -> %d, speed %d) = %d, want %d", name, cur, tgt, speed, out, want)
			}
		}
		check("R", c.R, target.R, got.R)
		check("G", c.G, target.G, got.G)
		check("B", c.B, target.B, got.B)
	}
}

func TestStepToward_Clamps(t *testing.T) {
	got := StepToward(Color{254, 1, 0}, Color{255, 0, 0}, 5)
	if got != (Color{255, 0, 0}) {
		t.Errorf("StepToward = %v, want clamped {255 0 0}", got)
	}
}

func TestGoToColor_FallingGreenUsesRed(t *testing.T) {
	// Installed behavior: a falling green is derived from red.
	got := GoToColor(Color{R: 10, G: 200, B: 50}, Color{R: 0, G: 0, B: 100}, 1)
	want := Color{R: 9, G: 9, B: 51}
	if got != want {
		t.Errorf("GoToColor = %v, want %v", got, want)
	}

	// A rising green is unaffected.
	got = GoToColor(Color{R: 10, G: 20, B: 50}, Color{R: 0, G: 100, B: 0}, 1)
	if got.G != 21 {
		t.Errorf("rising green = %d, want 21", got.G)
	}
}

func TestLayout_Sections(t *testing.T) {
	l := Layout{Zones: 5, Trunk: config.TrunkSize, Branch: config.BranchSize}
	if l.Len() != 355 {
		t.Fatalf("Len = %d", l.Len())
	}
	s, e := l.Zone(2)
	if s != 142 || e != 213 {
		t.Errorf("Zone(2) = [%d,%d)", s, e)
	}
	s, e = l.Section(2, false)
	if s != 142 || e != 169 {
		t.Errorf("trunk(2) = [%d,%d)", s, e)
	}
	s, e = l.Section(2, true)
	if s != 169 || e != 213 {
		t.Errorf("branch(2) = [%d,%d)", s, e)
	}
	for z := 0; z < l.Zones-1; z++ {
		_, end := l.Zone(z)
		next, _ := l.Zone(z + 1)
		if end != next {
			t.Errorf("zones %d and %d not contiguous", z, z+1)
		}
	}
}

func TestStrip_SetRangeBounds(t *testing.T) {
	s := NewStrip(4, &recordSink{})
	if err := s.SetRange(3, []Color{Red, Red}); err == nil {
		t.Fatal("expected out of range error")
	}
	if err := s.SetRange(2, []Color{Red, Blue}); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if snap[2] != Red || snap[3] != Blue || snap[0] != Black {
		t.Errorf("snapshot = %v", snap)
	}
}

func TestStrip_ClearFlushesBlack(t *testing.T) {
	sink := &recordSink{}
	s := NewStrip(3, sink)
	_ = s.SetRange(0, []Color{Red, Green, Blue})
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	last := sink.frames[len(sink.frames)-1]
	for i, c := range last {
		if c != Black {
			t.Fatalf("pixel %d = %v after Clear", i, c)
		}
	}
	if s.Frames() != 1 {
		t.Errorf("Frames = %d", s.Frames())
	}
}

func newTestAnimator(dist fixedDistances, opts Options, seed int64) (*Animator, *recordSink, Layout) {
	layout := Layout{Zones: len(dist), Trunk: 3, Branch: 4}
	sink := &recordSink{}
	strip := NewStrip(layout.Len(), sink)
	return NewAnimator(layout, strip, dist, opts, rand.New(rand.NewSource(seed))), sink, layout
}

func TestAnimator_SparkChance(t *testing.T) {
	a, _, _ := newTestAnimator(fixedDistances{1000}, OptionsFrom(config.Default().Animation), 1)
	if got := a.SparkChance(20); math.Abs(got-0.1) > 1e-12 {
		t.Errorf("SparkChance(20) = %v, want 0.1", got)
	}
	for _, d := range []float64{200, 250, 1000} {
		if got := a.SparkChance(d); got != 0.03 {
			t.Errorf("SparkChance(%v) = %v, want 0.03", d, got)
		}
	}
	if got := a.SparkChance(110); math.Abs(got-0.065) > 1e-12 {
		t.Errorf("SparkChance(110) = %v, want 0.065", got)
	}
}

func TestAnimator_ConvergedZoneHoldsBase(t *testing.T) {
	opts := Options{Speed: 1, SimilarityThreshold: 10}
	a, sink, layout := newTestAnimator(fixedDistances{1000, 1000}, opts, 3)

	for i := 0; i < 10; i++ {
		if err := a.Frame(); err != nil {
			t.Fatal(err)
		}
	}
	// No sparks and no rebase: every cell is still the base color.
	views := a.Zones()
	last := sink.frames[len(sink.frames)-1]
	for z, v := range views {
		if v.Lead != v.Base {
			t.Errorf("zone %d lead %v != base %v", z, v.Lead, v.Base)
		}
		start, end := layout.Zone(z)
		for i := start; i < end; i++ {
			if last[i] != v.Base {
				t.Fatalf("zone %d cell %d = %v, want %v", z, i, last[i], v.Base)
			}
		}
	}
	// One flush per zone per frame.
	if len(sink.frames) != 20 {
		t.Errorf("flushes = %d, want 20", len(sink.frames))
	}
}

func TestAnimator_SparksShiftThroughTrail(t *testing.T) {
	opts := Options{BaseSparkChance: 1, MaxSparkChance: 1, Speed: 1, SimilarityThreshold: 10}
	a, sink, layout := newTestAnimator(fixedDistances{1000}, opts, 5)

	var leads []Color
	for i := 0; i < layout.PerZone(); i++ {
		if err := a.StepZone(0); err != nil {
			t.Fatal(err)
		}
		leads = append(leads, a.Zones()[0].Lead)
	}
	last := sink.frames[len(sink.frames)-1]
	// Newest color first, oldest last.
	for i := range leads {
		if last[i] != leads[len(leads)-1-i] {
			t.Fatalf("cell %d = %v, want %v", i, last[i], leads[len(leads)-1-i])
		}
	}
	for _, c := range leads {
		found := false
		for _, p := range Palette {
			found = found || c == p
		}
		if !found {
			t.Fatalf("spark color %v not in palette", c)
		}
	}
}

func TestAnimator_ConvergesTowardsBase(t *testing.T) {
	opts := Options{Speed: 1, SimilarityThreshold: 10}
	a, _, _ := newTestAnimator(fixedDistances{1000}, opts, 9)

	// Force a lead far from the base.
	a.zones[0].base = Blue
	a.zones[0].cells[0] = Color{0, 0, 100}

	if err := a.StepZone(0); err != nil {
		t.Fatal(err)
	}
	if got := a.Zones()[0].Lead; got != (Color{0, 0, 101}) {
		t.Errorf("lead = %v, want one step towards blue", got)
	}
}

func TestAnimator_StripFailureIsReturned(t *testing.T) {
	a, sink, _ := newTestAnimator(fixedDistances{1000}, Options{Speed: 1}, 1)
	sink.err = errors.New("spi gone")
	if err := a.Frame(); err == nil {
		t.Fatal("expected flush error")
	}
}

func TestEncodeFrame(t *testing.T) {
	got := EncodeFrame([]Color{{1, 2, 3}, {4, 5, 6}})
	want := []byte{SOF0, SOF1, 0x00, 0x07, CmdShowFrame, 1, 2, 3, 4, 5, 6}
	var cks byte = 0x00 ^ 0x07 ^ CmdShowFrame ^ 1 ^ 2 ^ 3 ^ 4 ^ 5 ^ 6
	want = append(want, cks)
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x (%x)", i, got[i], want[i], got)
		}
	}
}

func TestEmulatedSink_KeepsLastFrame(t *testing.T) {
	e := &EmulatedSink{}
	_ = e.Show([]Color{Red, Green})
	_ = e.Show([]Color{Blue})
	if got := e.Last(); len(got) != 1 || got[0] != Blue {
		t.Errorf("Last = %v", got)
	}
	if FrameTime(355) <= 10*1000*1000 { // > 10ms for the installed strip
		t.Errorf("FrameTime(355) = %v", FrameTime(355))
	}
}
