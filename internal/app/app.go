// Package app is the terminal monitor: a dial with every zone at its bearing,
// the zone list and the supervisor state, refreshed at a fixed rate.
package app

import (
	"time"

	"echotree.klederson.com/internal/config"
	"echotree.klederson.com/internal/light"
	"echotree.klederson.com/internal/proximity"
	"echotree.klederson.com/internal/radar"
	"echotree.klederson.com/internal/supervisor"
	"echotree.klederson.com/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
)

type StatusSource interface {
	Status() supervisor.Status
}

type DistanceSource interface {
	Snapshot() []float64
}

type LightSource interface {
	Zones() []light.ZoneView
}

type FrameSource interface {
	Frames() uint64
}

// Sources is everything the monitor reads. Nil sources are shown as empty.
type Sources struct {
	Status    StatusSource
	Distances DistanceSource
	Lights    LightSource
	Frames    FrameSource
}

// shared holds state shared between the Bubble Tea model copies and main.
// Bubble Tea uses value receivers, so pointer fields keep every copy on the
// same data.
type shared struct {
	sweep *radar.Sweep
	plots []*proximity.History
	err   error
}

// Model is the root Bubble Tea model.
type Model struct {
	width  int
	height int

	inst   config.Installation
	src    Sources
	mode   string
	paused bool
	detail bool
	cursor int
	shared *shared
	rows   []ui.ZoneRow
	status supervisor.Status
	frames uint64
}

// New creates a monitor for inst. mode is shown in the menu bar.
func New(inst config.Installation, src Sources, mode string) Model {
	plots := make([]*proximity.History, len(inst.Zones))
	for i := range plots {
		plots[i] = proximity.NewHistory(config.PlotSamples)
	}
	return Model{
		inst: inst,
		src:  src,
		mode: mode,
		shared: &shared{
			sweep: radar.NewSweep(),
			plots: plots,
		},
	}
}

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		m.shared.sweep.Update()
		if !m.paused {
			m.refresh()
		}
		return m, tickCmd()

	case FailedMsg:
		m.shared.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit
	case "p", "P":
		m.paused = !m.paused
	case "d", "D", "enter":
		m.detail = !m.detail
	case "esc":
		m.detail = false
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.inst.Zones)-1 {
			m.cursor++
		}
	case "home":
		m.cursor = 0
	case "end":
		m.cursor = max(0, len(m.inst.Zones)-1)
	}
	return m, nil
}

// refresh pulls a fresh snapshot from every source.
func (m *Model) refresh() {
	n := len(m.inst.Zones)
	var dists []float64
	if m.src.Distances != nil {
		dists = m.src.Distances.Snapshot()
	}
	var views []light.ZoneView
	if m.src.Lights != nil {
		views = m.src.Lights.Zones()
	}
	if m.src.Status != nil {
		m.status = m.src.Status.Status()
	}
	if m.src.Frames != nil {
		m.frames = m.src.Frames.Frames()
	}

	muted := make(map[int]bool, len(m.inst.DisabledSoundZones))
	for _, z := range m.inst.DisabledSoundZones {
		muted[z] = true
	}

	rows := make([]ui.ZoneRow, n)
	for z := 0; z < n; z++ {
		d := config.MaxRangeCM
		if z < len(dists) {
			d = dists[z]
		}
		m.shared.plots[z].Push(d)

		r := ui.ZoneRow{
			Zone:      z,
			Pin:       m.inst.Zones[z].EchoPin,
			Channel:   m.inst.Zones[z].Channel,
			Distance:  d,
			Intensity: proximity.Normalize(d, 1),
			Note:      -1,
			Muted:     muted[z],
			Base:      light.Black.Hex(),
			Lead:      light.Black.Hex(),
		}
		if z < len(m.status.Notes) {
			r.Note = m.status.Notes[z]
		}
		if z < len(views) {
			r.Base = views[z].Base.Hex()
			r.Lead = views[z].Lead.Hex()
			r.Spark = views[z].SparkChance
		}
		rows[z] = r
	}
	m.rows = rows
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Starting " + config.AppName + "..."
	}

	bodyH := max(5, m.height-2)
	leftW := max(30, m.width*3/5)
	rightW := m.width - leftW
	if rightW < 24 {
		rightW = 24
		leftW = m.width - rightW
	}

	menu := ui.RenderMenuBar(m.width, m.mode, m.paused)

	var left string
	if m.detail && m.cursor < len(m.rows) {
		left = ui.RenderZoneDetail(m.rows[m.cursor], leftW, bodyH, m.shared.plots[m.cursor].Values())
	} else {
		dial := radar.Render(max(5, leftW-4), max(3, bodyH-4), m.blips(), m.shared.sweep)
		left = ui.RenderRadarPanel(leftW, bodyH, dial, radar.RenderLegend(leftW-4))
	}
	list := ui.RenderZoneList(m.rows, rightW, bodyH, m.cursor)

	info := ui.StatusInfo{
		Phase:    m.status.Phase.String(),
		Sessions: m.status.Sessions,
		Passes:   m.status.Passes,
		Frames:   m.frames,
	}
	if m.status.LastErr != nil {
		info.LastErr = supervisor.Classify(m.status.LastErr)
	}
	status := ui.RenderStatusBar(m.width, info)

	return ui.ComposeLayout(menu, left, list, status)
}

func (m Model) blips() []radar.Blip {
	out := make([]radar.Blip, len(m.rows))
	for i, r := range m.rows {
		out[i] = radar.Blip{
			Zone:     r.Zone,
			Angle:    radar.ZoneAngle(r.Zone, len(m.rows)),
			Distance: r.Distance,
			Color:    r.Lead,
			Near:     r.Distance < config.FarThresholdCM,
			Muted:    r.Muted,
		}
	}
	return out
}

// Err returns the failure that closed the monitor, if any.
func (m Model) Err() error {
	return m.shared.err
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(config.TargetFPS), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
