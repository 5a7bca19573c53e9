package config

import "time"

const (
	// Echo timing
	SpeedOfSound      = 343.0                  // m/s
	SecondsToCM       = SpeedOfSound * 100 / 2 // echo seconds to cm (sound travels there and back)
	MaxRangeCM        = 1000.0                 // sentinel reported when no echo is seen
	PulseToCM         = 17150.0                // empirical echo seconds to cm factor
	TriggerPulse      = 10 * time.Microsecond  // trigger high time
	ZoneSettle        = 10 * time.Millisecond  // pause before each zone's trigger
	HistorySize       = 5                      // samples in the moving average
	DistancePrecision = 100                    // raw distances are rounded to 1/100 cm

	// Normalization
	NearThresholdCM = 20.0  // at or below: full intensity
	FarThresholdCM  = 200.0 // at or above: zero intensity
	MaxNote         = 127

	// Sound
	DeviceMatch       = "Pure Data"
	PatchChannel      = 6
	PatchNote         = 127
	PatchEventsMax    = 100
	NoteVelocity      = 64
	DiscoveryTimeout  = 5 * time.Second
	DiscoveryInterval = 250 * time.Millisecond

	// LEDs
	TrunkSize   = 27
	BranchSize  = 44
	LEDsPerZone = TrunkSize + BranchSize

	// Animation
	BaseSparkChance     = 0.03
	MaxSparkChance      = 0.1
	BaseSparkSpeed      = 1
	RebaseChance        = 0.001
	SimilarityThreshold = 10

	// Supervisor
	RestartDelay = 1 * time.Second

	// Monitor
	TargetFPS     = 30
	RadarRangeCM  = 250.0 // outer radar ring
	AspectRatio   = 0.5   // terminal cells are about twice as tall as wide
	RingCount     = 4
	SweepSpeedRPM = 30
	SweepTrailDeg = 60.0
	PlotSamples   = 120 // distance history kept per zone for the detail plot

	// App
	AppName    = "ECHOTREE"
	AppVersion = "1.0"
)

// MaxEchoDuration is the longest echo worth waiting for: a 10 m round trip.
func MaxEchoDuration() time.Duration {
	secs := MaxRangeCM / SecondsToCM
	return time.Duration(secs * float64(time.Second))
}
