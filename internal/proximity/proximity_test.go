package proximity

import (
	"math"
	"sync"
	"testing"

	"echotree.klederson.com/internal/config"
)

const floatTolerance = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func TestNormalize_Boundaries(t *testing.T) {
	for _, max := range []float64{127, 0.07, 255} {
		for _, d := range []float64{0, 5, 19.99, 20} {
			if got := Normalize(d, max); got != max {
				t.Errorf("Normalize(%v, %v) = %v, want %v", d, max, got, max)
			}
		}
		for _, d := range []float64{200, 200.01, 500, 1000} {
			if got := Normalize(d, max); got != 0 {
				t.Errorf("Normalize(%v, %v) = %v, want 0", d, max, got)
			}
		}
	}
}

func TestNormalize_LinearAndMonotonic(t *testing.T) {
	const max = 127.0
	if got := Normalize(110, max); !floatEquals(got, 63.5) {
		t.Errorf("Normalize(110) = %v, want 63.5", got)
	}

	prev := Normalize(20, max)
	for d := 20.5; d <= 200; d += 0.5 {
		got := Normalize(d, max)
		if got > prev {
			t.Fatalf("Normalize not monotonic at %v: %v > %v", d, got, prev)
		}
		want := max - (d-20)*max/180
		if !floatEquals(got, want) {
			t.Fatalf("Normalize(%v) = %v, want slope -max/180 value %v", d, got, want)
		}
		if got < 0 || got > max {
			t.Fatalf("Normalize(%v) = %v escaped [0, %v]", d, got, max)
		}
		prev = got
	}
}

func TestNormalizer_CustomThresholds(t *testing.T) {
	n := Normalizer{Near: 50, Far: 150}
	if got := n.Normalize(100, 10); !floatEquals(got, 5) {
		t.Errorf("Normalize(100) = %v, want 5", got)
	}
}

func TestHistory_MeanOfRecentSamples(t *testing.T) {
	h := NewHistory(3)
	if h.Mean() != 0 || h.Len() != 0 {
		t.Fatalf("empty history: mean %v len %d", h.Mean(), h.Len())
	}
	h.Push(10)
	h.Push(20)
	if !floatEquals(h.Mean(), 15) {
		t.Errorf("mean of 2 = %v, want 15", h.Mean())
	}
	h.Push(30)
	h.Push(40) // evicts 10
	if !floatEquals(h.Mean(), 30) {
		t.Errorf("mean after eviction = %v, want 30", h.Mean())
	}
	vals := h.Values()
	want := []float64{20, 30, 40}
	for i := range want {
		if vals[i] != want[i] {
			t.Fatalf("Values() = %v, want %v", vals, want)
		}
	}
	if h.Last() != 40 {
		t.Errorf("Last() = %v, want 40", h.Last())
	}
}

func TestHistory_FilledWithSentinel(t *testing.T) {
	h := NewHistory(config.HistorySize)
	h.Fill(config.MaxRangeCM)
	if h.Len() != config.HistorySize || h.Mean() != config.MaxRangeCM {
		t.Fatalf("filled history: len %d mean %v", h.Len(), h.Mean())
	}

	for i := 0; i < config.HistorySize; i++ {
		h.Push(20)
	}
	if h.Mean() != 20 {
		t.Errorf("after %d samples of 20, mean = %v", config.HistorySize, h.Mean())
	}
}

func TestHistory_AlternatingSamples(t *testing.T) {
	h := NewHistory(5)
	h.Fill(1000)

	raw := []float64{20, 200, 20, 200, 20, 200, 20}
	want := []float64{804, 644, 448, 288, 92, 128, 92}
	for i, r := range raw {
		h.Push(r)
		if !floatEquals(h.Mean(), want[i]) {
			t.Errorf("after sample %d (%v): mean = %v, want %v", i, r, h.Mean(), want[i])
		}
	}
}

func TestState_DefaultsAndSnapshot(t *testing.T) {
	s := NewState(5)
	if s.Zones() != 5 {
		t.Fatalf("Zones() = %d", s.Zones())
	}
	for z := 0; z < 5; z++ {
		if s.Distance(z) != config.MaxRangeCM {
			t.Errorf("zone %d default = %v", z, s.Distance(z))
		}
		if !s.Updated(z).IsZero() {
			t.Errorf("zone %d has update time before first pass", z)
		}
	}

	s.Set(2, 42.5)
	snap := s.Snapshot()
	snap[2] = 0
	if s.Distance(2) != 42.5 {
		t.Errorf("snapshot aliases state: %v", s.Distance(2))
	}
	if s.Updated(2).IsZero() {
		t.Error("Updated not recorded")
	}
}

func TestState_ConcurrentReaders(t *testing.T) {
	s := NewState(3)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.Set(i%3, float64(i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = s.Snapshot()
			_ = s.Distance(i % 3)
		}
	}()
	wg.Wait()
}
