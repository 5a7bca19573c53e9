package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func rows(n int) []ZoneRow {
	out := make([]ZoneRow, n)
	for i := range out {
		out[i] = ZoneRow{Zone: i, Pin: "GPIO24", Channel: i, Distance: 1000, Note: -1, Base: "#FF0000", Lead: "#00FF00"}
	}
	return out
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 50, 100}, 10); got != "_-^" {
		t.Errorf("Sparkline = %q", got)
	}
	if got := Sparkline([]float64{1, 2, 3, 4, 5, 100}, 2); len(got) != 2 || got[1] != '^' {
		t.Errorf("Sparkline tail = %q", got)
	}
	if got := Sparkline([]float64{7, 7, 7}, 5); got != "___" {
		t.Errorf("flat Sparkline = %q", got)
	}
	if Sparkline(nil, 5) != "" {
		t.Error("empty input")
	}
}

func TestIntensityBar(t *testing.T) {
	got := ansi.Strip(IntensityBar(0.5, 10))
	if got != "[|||||-----]" {
		t.Errorf("bar = %q", got)
	}
	if got := ansi.Strip(IntensityBar(3, 4)); got != "[||||]" {
		t.Errorf("clamped bar = %q", got)
	}
}

func TestRenderZoneList_FixedHeight(t *testing.T) {
	for _, n := range []int{0, 1, 5, 20} {
		out := RenderZoneList(rows(n), 40, 18, n-1)
		if got := len(strings.Split(out, "\n")); got != 18 {
			t.Errorf("%d zones: %d lines, want 18", n, got)
		}
	}
}

func TestRenderZoneList_ShowsCursorZone(t *testing.T) {
	r := rows(5)
	r[4].Muted = true
	out := ansi.Strip(RenderZoneList(r, 40, 10, 4))
	if !strings.Contains(out, ">> Zone 5") {
		t.Errorf("cursor zone not visible:\n%s", out)
	}
	if !strings.Contains(out, "[muted]") {
		t.Errorf("muted tag missing:\n%s", out)
	}
}

func TestRenderStatusBar(t *testing.T) {
	out := ansi.Strip(RenderStatusBar(120, StatusInfo{Phase: "CRASHED", Sessions: 3, LastErr: "no device"}))
	for _, want := range []string{"[CRASHED]", "Session: 3", "no device"} {
		if !strings.Contains(out, want) {
			t.Errorf("status bar missing %q: %q", want, out)
		}
	}
}

func TestRenderZoneDetail(t *testing.T) {
	r := rows(1)[0]
	r.Note = 64
	out := ansi.Strip(RenderZoneDetail(r, 60, 24, []float64{1000, 500, 20}))
	for _, want := range []string{"ZONE 1", "GPIO24", "64", "Distance history"} {
		if !strings.Contains(out, want) {
			t.Errorf("detail missing %q", want)
		}
	}
}
