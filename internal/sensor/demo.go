package sensor

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"echotree.klederson.com/internal/config"
)

// echoLatency is how long a simulated sensor takes to start its echo.
const echoLatency = 200 * time.Microsecond

type visitor struct {
	baseCM    float64
	amplitude float64
	phase     float64
	speed     float64
	present   bool
}

// DemoPins simulates the sensor lines for running without hardware.
// Visitors drift towards and away from each zone; now and then an echo is
// lost, which exercises the sentinel path.
type DemoPins struct {
	mu       sync.Mutex
	rng      *rand.Rand
	start    time.Time
	visitors []visitor
	echoes   []*demoEcho
	missRate float64
}

// NewDemoPins creates simulated lines for the given number of zones.
func NewDemoPins(zones int) *DemoPins {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	d := &DemoPins{
		rng:      rng,
		start:    time.Now(),
		missRate: 0.02,
	}
	for i := 0; i < zones; i++ {
		d.visitors = append(d.visitors, visitor{
			baseCM:    60 + rng.Float64()*120, // 60-180 cm
			amplitude: 30 + rng.Float64()*60,
			phase:     rng.Float64() * 2 * math.Pi,
			speed:     0.2 + rng.Float64()*0.4,
			present:   rng.Intn(2) == 0,
		})
		d.echoes = append(d.echoes, &demoEcho{})
	}
	return d
}

func (d *DemoPins) Trigger() Trigger {
	return demoTrigger{d}
}

func (d *DemoPins) Echo(zone int) (Echo, error) {
	if zone < 0 || zone >= len(d.echoes) {
		return nil, fmt.Errorf("%w: %d", ErrNoZone, zone)
	}
	return d.echoes[zone], nil
}

func (d *DemoPins) Close() error {
	return nil
}

// fire schedules every sensor's echo, as the shared trigger does.
func (d *DemoPins) fire(at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t := at.Sub(d.start).Seconds()
	for i := range d.visitors {
		v := &d.visitors[i]

		// Visitors come and go.
		if d.rng.Float64() < 0.002 {
			v.present = !v.present
		}

		var dist float64
		if v.present {
			dist = v.baseCM + v.amplitude*math.Sin(t*v.speed+v.phase) + (d.rng.Float64()-0.5)*6
			dist = math.Max(5, dist)
		} else {
			dist = 300 + d.rng.Float64()*200 // the far wall
		}

		if d.rng.Float64() < d.missRate {
			d.echoes[i].schedule(time.Time{}, time.Time{})
			continue
		}
		rise := at.Add(echoLatency)
		width := time.Duration(dist / config.PulseToCM * float64(time.Second))
		d.echoes[i].schedule(rise, rise.Add(width))
	}
}

type demoTrigger struct{ d *DemoPins }

func (t demoTrigger) Out(high bool) error {
	if !high {
		t.d.fire(time.Now())
	}
	return nil
}

type demoEcho struct {
	mu   sync.Mutex
	rise time.Time
	fall time.Time
}

func (e *demoEcho) schedule(rise, fall time.Time) {
	e.mu.Lock()
	e.rise, e.fall = rise, fall
	e.mu.Unlock()
}

func (e *demoEcho) Read() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rise.IsZero() {
		return false
	}
	now := time.Now()
	return !now.Before(e.rise) && now.Before(e.fall)
}

func (e *demoEcho) WaitForEdge(timeout time.Duration) bool {
	e.mu.Lock()
	rise, fall := e.rise, e.fall
	e.mu.Unlock()

	now := time.Now()
	var next time.Time
	switch {
	case rise.IsZero():
	case now.Before(rise):
		next = rise
	case now.Before(fall):
		next = fall
	}
	if next.IsZero() || next.Sub(now) > timeout {
		time.Sleep(timeout)
		return false
	}
	time.Sleep(next.Sub(now))
	return true
}
