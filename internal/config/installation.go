package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid installation")

// Zone is one monitored region of the installation.
type Zone struct {
	EchoPin string `yaml:"echo_pin"`
	Channel int    `yaml:"channel"` // MIDI channel, 0-based
}

// Installation describes the physical installation. It is loaded once at
// startup and never changes afterwards.
type Installation struct {
	TriggerPin string `yaml:"trigger_pin"`
	Zones      []Zone `yaml:"zones"`

	// Zone indexes whose note output is muted.
	DisabledSoundZones []int `yaml:"disabled_sound_zones"`

	Sampler    SamplerConfig    `yaml:"sampler"`
	LEDs       LEDConfig        `yaml:"leds"`
	Animation  AnimationConfig  `yaml:"animation"`
	Sound      SoundConfig      `yaml:"sound"`
	Engine     EngineConfig     `yaml:"engine"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
}

type SamplerConfig struct {
	History int           `yaml:"history"`
	Settle  time.Duration `yaml:"settle"`
	Pulse   time.Duration `yaml:"pulse"`
}

// LEDConfig selects the pixel driver and the per-zone layout.
type LEDConfig struct {
	Trunk      int    `yaml:"trunk"`
	Branch     int    `yaml:"branch"`
	Driver     string `yaml:"driver"` // "spi", "serial" or "emulated"
	SPIPort    string `yaml:"spi_port"`
	SerialPort string `yaml:"serial_port"`
	Baud       int    `yaml:"baud"`
}

type AnimationConfig struct {
	BaseSparkChance     float64 `yaml:"base_spark_chance"`
	MaxSparkChance      float64 `yaml:"max_spark_chance"`
	Speed               int     `yaml:"speed"`
	RebaseChance        float64 `yaml:"rebase_chance"`
	SimilarityThreshold int     `yaml:"similarity_threshold"`
	// GreenUsesRed keeps the installed convergence step, where a falling
	// green channel is computed from the red value.
	GreenUsesRed bool `yaml:"green_uses_red"`
}

type SoundConfig struct {
	DeviceMatch      string        `yaml:"device_match"`
	PatchChannel     int           `yaml:"patch_channel"`
	PatchNote        int           `yaml:"patch_note"`
	PatchEventsMax   int           `yaml:"patch_events_max"`
	Velocity         int           `yaml:"velocity"`
	DiscoveryTimeout time.Duration `yaml:"discovery_timeout"`
}

// EngineConfig is the command line of the external synthesis engine.
type EngineConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Dir     string   `yaml:"dir"`
}

type SupervisorConfig struct {
	RestartDelay time.Duration `yaml:"restart_delay"`
}

// Default returns the installation as it is built: five zones sharing one
// trigger line, each with a 27 LED trunk and a 44 LED branch.
func Default() Installation {
	return Installation{
		TriggerPin: "GPIO23",
		Zones: []Zone{
			{EchoPin: "GPIO24", Channel: 0},
			{EchoPin: "GPIO27", Channel: 1},
			{EchoPin: "GPIO25", Channel: 2},
			{EchoPin: "GPIO17", Channel: 3},
			{EchoPin: "GPIO22", Channel: 4},
		},
		DisabledSoundZones: []int{},
		Sampler: SamplerConfig{
			History: HistorySize,
			Settle:  ZoneSettle,
			Pulse:   TriggerPulse,
		},
		LEDs: LEDConfig{
			Trunk:      TrunkSize,
			Branch:     BranchSize,
			Driver:     "spi",
			SerialPort: "/dev/ttyACM0",
			Baud:       500000,
		},
		Animation: AnimationConfig{
			BaseSparkChance:     BaseSparkChance,
			MaxSparkChance:      MaxSparkChance,
			Speed:               BaseSparkSpeed,
			RebaseChance:        RebaseChance,
			SimilarityThreshold: SimilarityThreshold,
			GreenUsesRed:        true,
		},
		Sound: SoundConfig{
			DeviceMatch:      DeviceMatch,
			PatchChannel:     PatchChannel,
			PatchNote:        PatchNote,
			PatchEventsMax:   PatchEventsMax,
			Velocity:         NoteVelocity,
			DiscoveryTimeout: DiscoveryTimeout,
		},
		Engine: EngineConfig{
			Command: "puredata",
			Args:    []string{"-nogui", "-audiooutdev", "2", "-midiindev", "1", "-alsamidi", "tree4.pd"},
			Dir:     "/home/tree/sound",
		},
		Supervisor: SupervisorConfig{
			RestartDelay: RestartDelay,
		},
	}
}

// Load reads an installation file on top of the defaults. An empty path or
// a missing file yields the defaults.
func Load(path string) (Installation, error) {
	inst := Default()
	if path == "" {
		return inst, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return inst, nil
	}
	if err != nil {
		return inst, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &inst); err != nil {
		return inst, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := inst.Validate(); err != nil {
		return inst, err
	}
	return inst, nil
}

// Validate checks the installation for values the controller cannot run with.
func (in Installation) Validate() error {
	if len(in.Zones) == 0 {
		return fmt.Errorf("%w: no zones", ErrInvalid)
	}
	seen := make(map[string]bool, len(in.Zones))
	for i, z := range in.Zones {
		if z.EchoPin == "" {
			return fmt.Errorf("%w: zone %d has no echo pin", ErrInvalid, i)
		}
		if seen[z.EchoPin] {
			return fmt.Errorf("%w: echo pin %s used twice", ErrInvalid, z.EchoPin)
		}
		seen[z.EchoPin] = true
		if z.Channel < 0 || z.Channel > 15 {
			return fmt.Errorf("%w: zone %d channel %d out of range", ErrInvalid, i, z.Channel)
		}
	}
	for _, d := range in.DisabledSoundZones {
		if d < 0 || d >= len(in.Zones) {
			return fmt.Errorf("%w: disabled zone %d does not exist", ErrInvalid, d)
		}
	}
	if in.Sampler.History < 1 {
		return fmt.Errorf("%w: history must be at least 1", ErrInvalid)
	}
	if in.LEDs.Trunk < 1 || in.LEDs.Branch < 1 {
		return fmt.Errorf("%w: trunk and branch need at least one LED", ErrInvalid)
	}
	switch in.LEDs.Driver {
	case "spi", "serial", "emulated":
	default:
		return fmt.Errorf("%w: unknown LED driver %q", ErrInvalid, in.LEDs.Driver)
	}
	if in.Sound.PatchChannel < 0 || in.Sound.PatchChannel > 15 {
		return fmt.Errorf("%w: patch channel %d out of range", ErrInvalid, in.Sound.PatchChannel)
	}
	if in.Sound.PatchEventsMax < 1 {
		return fmt.Errorf("%w: patch_events_max must be at least 1", ErrInvalid)
	}
	if in.Sound.PatchNote < 0 || in.Sound.PatchNote > MaxNote || in.Sound.Velocity < 0 || in.Sound.Velocity > MaxNote {
		return fmt.Errorf("%w: note values must be within 0-127", ErrInvalid)
	}
	a := in.Animation
	if a.BaseSparkChance < 0 || a.MaxSparkChance < a.BaseSparkChance || a.MaxSparkChance > 1 {
		return fmt.Errorf("%w: spark chances must satisfy 0 <= base <= max <= 1", ErrInvalid)
	}
	if a.Speed < 1 {
		return fmt.Errorf("%w: animation speed must be at least 1", ErrInvalid)
	}
	return nil
}

// LEDCount is the length of the whole strip.
func (in Installation) LEDCount() int {
	return len(in.Zones) * (in.LEDs.Trunk + in.LEDs.Branch)
}

// SoundDisabled reports whether note output is muted for zone.
func (in Installation) SoundDisabled(zone int) bool {
	for _, d := range in.DisabledSoundZones {
		if d == zone {
			return true
		}
	}
	return false
}
