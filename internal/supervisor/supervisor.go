// Package supervisor runs the sound pipeline in sessions and restarts it
// after any failure. A session owns the synthesis engine, the note output
// and the sensor lines, and releases all three however it ends.
package supervisor

import (
	"context"
	"fmt"
	"math/rand"
	"runtime/debug"
	"sync"
	"time"

	"echotree.klederson.com/internal/config"
	"echotree.klederson.com/internal/log"
	"echotree.klederson.com/internal/proximity"
	"echotree.klederson.com/internal/sensor"
	"echotree.klederson.com/internal/sound"
)

type Phase int

const (
	PhaseStopped Phase = iota
	PhaseStarting
	PhaseRunning
	PhaseCrashed
	PhaseStopping
)

func (p Phase) String() string {
	switch p {
	case PhaseStopped:
		return "STOPPED"
	case PhaseStarting:
		return "STARTING"
	case PhaseRunning:
		return "RUNNING"
	case PhaseCrashed:
		return "CRASHED"
	case PhaseStopping:
		return "STOPPING"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Deps opens the resources of one session.
type Deps struct {
	StartEngine func(ctx context.Context) (Process, error)
	OpenOutput  func(ctx context.Context) (sound.Output, error)
	OpenPins    func() (sensor.Pins, error)

	// NewRanger defaults to an echo ranger over the session's pins.
	NewRanger func(sensor.Pins) sensor.Ranger

	// OnPhase, when set, observes every phase change.
	OnPhase func(Phase)
}

// Status is a snapshot for display.
type Status struct {
	Phase    Phase
	Sessions int
	LastErr  error
	Notes    []int
	Passes   uint64
	Since    time.Time
}

// Supervisor owns the restart loop.
type Supervisor struct {
	inst  config.Installation
	state *proximity.State
	deps  Deps
	rng   *rand.Rand

	mu       sync.RWMutex
	phase    Phase
	sessions int
	lastErr  error
	since    time.Time
	bridge   *sound.Bridge
	sampler  *sensor.Sampler
}

// New creates a supervisor publishing smoothed distances into state.
func New(inst config.Installation, state *proximity.State, deps Deps, rng *rand.Rand) *Supervisor {
	if deps.NewRanger == nil {
		pulse := inst.Sampler.Pulse
		deps.NewRanger = func(p sensor.Pins) sensor.Ranger {
			return sensor.NewEchoRanger(p, pulse, config.MaxEchoDuration())
		}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Supervisor{
		inst:  inst,
		state: state,
		deps:  deps,
		rng:   rng,
		since: time.Now(),
	}
}

// Run starts sessions until ctx is cancelled. It only returns nil.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		err := s.RunSession(ctx)
		if ctx.Err() != nil {
			log.Info("supervisor: stopped", "sessions", s.Sessions())
			return nil
		}
		log.Error("supervisor: session failed, restarting",
			"err", err,
			"kind", Classify(err),
			"delay", s.inst.Supervisor.RestartDelay,
		)
		if !wait(ctx, s.inst.Supervisor.RestartDelay) {
			log.Info("supervisor: stopped", "sessions", s.Sessions())
			return nil
		}
	}
}

// RunSession runs one session to completion. Whatever was acquired is
// released before it returns, including after a panic.
func (s *Supervisor) RunSession(ctx context.Context) (err error) {
	s.mu.Lock()
	s.sessions++
	n := s.sessions
	s.mu.Unlock()

	var release []func()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
			log.Error("supervisor: panic", "session", n, "panic", r, "stack", string(debug.Stack()))
		}
		if err != nil && ctx.Err() == nil {
			s.setPhase(PhaseCrashed, err)
		}
		s.setPhase(PhaseStopping, nil)
		for i := len(release) - 1; i >= 0; i-- {
			release[i]()
		}
		s.mu.Lock()
		s.bridge = nil
		s.sampler = nil
		s.mu.Unlock()
		s.setPhase(PhaseStopped, nil)
	}()

	s.setPhase(PhaseStarting, nil)
	log.Info("supervisor: session starting", "session", n)

	sessCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	proc, err := s.deps.StartEngine(sessCtx)
	if err != nil {
		return err
	}
	release = append(release, func() {
		if kerr := proc.Kill(); kerr != nil {
			log.Warn("supervisor: kill engine", "err", kerr)
		}
	})
	go func() {
		select {
		case <-proc.Done():
			cancel(fmt.Errorf("%w (pid %d)", ErrEngineExited, proc.Pid()))
		case <-sessCtx.Done():
		}
	}()

	out, err := s.deps.OpenOutput(sessCtx)
	if err != nil {
		return s.cause(sessCtx, err)
	}
	release = append(release, func() {
		if cerr := out.Close(); cerr != nil {
			log.Warn("supervisor: close output", "err", cerr)
		}
	})

	channels := make([]int, len(s.inst.Zones))
	for i, z := range s.inst.Zones {
		channels[i] = z.Channel
	}
	bridge := sound.NewBridge(out, channels, s.inst.DisabledSoundZones, s.inst.Sound.Velocity)

	snd := s.inst.Sound
	if _, perr := bridge.RandomizePatch(s.rng, snd.PatchChannel, snd.PatchNote, snd.PatchEventsMax); perr != nil {
		log.Warn("supervisor: patch randomization incomplete", "err", perr)
	}

	pins, err := s.deps.OpenPins()
	if err != nil {
		return s.cause(sessCtx, err)
	}
	release = append(release, func() {
		if cerr := pins.Close(); cerr != nil {
			log.Warn("supervisor: release sensor lines", "err", cerr)
		}
	})

	sampler := sensor.NewSampler(s.deps.NewRanger(pins), s.state, bridge, s.inst.Sampler.History, s.inst.Sampler.Settle)
	s.mu.Lock()
	s.bridge = bridge
	s.sampler = sampler
	s.mu.Unlock()

	s.setPhase(PhaseRunning, nil)
	log.Info("supervisor: session running", "session", n, "pid", proc.Pid())

	return s.cause(sessCtx, sampler.Run(sessCtx))
}

// cause prefers the session's cancel cause over the plain context error so
// an engine exit is reported as such.
func (s *Supervisor) cause(ctx context.Context, err error) error {
	if err == nil || ctx.Err() == nil {
		return err
	}
	if c := context.Cause(ctx); c != nil {
		return c
	}
	return err
}

func (s *Supervisor) setPhase(p Phase, err error) {
	s.mu.Lock()
	s.phase = p
	s.since = time.Now()
	if err != nil {
		s.lastErr = err
	}
	hook := s.deps.OnPhase
	s.mu.Unlock()

	log.Debug("supervisor: phase", "phase", p.String())
	if hook != nil {
		hook(p)
	}
}

func (s *Supervisor) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

func (s *Supervisor) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions
}

// Status returns the current phase, counters and last notes.
func (s *Supervisor) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{
		Phase:    s.phase,
		Sessions: s.sessions,
		LastErr:  s.lastErr,
		Since:    s.since,
	}
	if s.bridge != nil {
		st.Notes = s.bridge.LastNotes()
	}
	if s.sampler != nil {
		st.Passes = s.sampler.Passes()
	}
	return st
}

func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
