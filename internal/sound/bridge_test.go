package sound

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
)

type note struct{ ch, key, vel uint8 }

// mockOutput records all notes for testing
type mockOutput struct {
	mu     sync.Mutex
	notes  []note
	failAt int // fail the n-th send (1-based), 0 never
	closed bool
}

func (m *mockOutput) NoteOn(ch, key, vel uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAt > 0 && len(m.notes)+1 == m.failAt {
		return errors.New("port gone")
	}
	m.notes = append(m.notes, note{ch, key, vel})
	return nil
}

func (m *mockOutput) Close() error {
	m.closed = true
	return nil
}

func (m *mockOutput) sent() []note {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]note(nil), m.notes...)
}

func TestNoteFor(t *testing.T) {
	tests := []struct {
		dist float64
		want uint8
	}{
		{0, 127},
		{20, 127},
		{110, 63}, // 63.5 floored
		{199, 0},  // 0.705 floored
		{200, 0},
		{1000, 0},
		{21, 126}, // 126.29 floored
	}
	for _, tt := range tests {
		if got := NoteFor(tt.dist); got != tt.want {
			t.Errorf("NoteFor(%v) = %d, want %d", tt.dist, got, tt.want)
		}
	}
}

func TestBridge_NotifyUsesZoneChannel(t *testing.T) {
	out := &mockOutput{}
	b := NewBridge(out, []int{0, 1, 2}, nil, 64)

	if err := b.Notify(2, 20); err != nil {
		t.Fatal(err)
	}
	got := out.sent()
	if len(got) != 1 || got[0] != (note{2, 127, 64}) {
		t.Fatalf("sent %v, want one note on ch 2 key 127 vel 64", got)
	}
	if last := b.LastNotes(); last[2] != 127 || last[0] != -1 {
		t.Errorf("LastNotes = %v", last)
	}
}

func TestBridge_DisabledZoneIsSilent(t *testing.T) {
	out := &mockOutput{}
	b := NewBridge(out, []int{0, 1, 2}, []int{1}, 64)

	for _, d := range []float64{0, 20, 100, 200, 1000} {
		if err := b.Notify(1, d); err != nil {
			t.Fatal(err)
		}
	}
	if n := len(out.sent()); n != 0 {
		t.Fatalf("disabled zone produced %d notes", n)
	}
	sent, muted := b.Stats()
	if sent != 0 || muted != 5 {
		t.Errorf("Stats = %d sent, %d muted", sent, muted)
	}

	if err := b.Notify(0, 1000); err != nil {
		t.Fatal(err)
	}
	if n := len(out.sent()); n != 1 {
		t.Errorf("enabled zone sent %d notes, want 1", n)
	}
}

func TestBridge_TransmitFailure(t *testing.T) {
	out := &mockOutput{failAt: 1}
	b := NewBridge(out, []int{0}, nil, 64)

	err := b.Notify(0, 50)
	if !errors.Is(err, ErrTransmit) {
		t.Fatalf("Notify error = %v, want ErrTransmit", err)
	}
}

func TestBridge_UnknownZone(t *testing.T) {
	b := NewBridge(&mockOutput{}, []int{0}, nil, 64)
	if err := b.Notify(3, 50); err == nil {
		t.Fatal("expected error for zone without channel")
	}
}

func TestBridge_RandomizePatch(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		out := &mockOutput{}
		b := NewBridge(out, []int{0}, nil, 64)

		n, err := b.RandomizePatch(rand.New(rand.NewSource(seed)), 6, 127, 100)
		if err != nil {
			t.Fatal(err)
		}
		if n < 1 || n > 100 {
			t.Fatalf("seed %d: sent %d patch events, want 1..100", seed, n)
		}
		got := out.sent()
		if len(got) != n {
			t.Fatalf("seed %d: recorded %d notes, reported %d", seed, len(got), n)
		}
		for _, nt := range got {
			if nt.ch != 6 || nt.key != 127 {
				t.Fatalf("patch note %+v, want ch 6 key 127", nt)
			}
		}
	}
}

func TestBridge_RandomizePatchFailureIsReported(t *testing.T) {
	out := &mockOutput{failAt: 1}
	b := NewBridge(out, []int{0}, nil, 64)
	n, err := b.RandomizePatch(rand.New(rand.NewSource(1)), 6, 127, 100)
	if !errors.Is(err, ErrTransmit) || n != 0 {
		t.Fatalf("RandomizePatch = %d, %v", n, err)
	}
}

func TestContainsCI(t *testing.T) {
	if !ContainsCI("Pure Data:Pure Data Midi-In 1 128:0", "pure data") {
		t.Error("expected case-insensitive match")
	}
	if ContainsCI("Midi Through Port-0", "Pure Data") {
		t.Error("unexpected match")
	}
}
