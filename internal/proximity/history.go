package proximity

// History is a fixed-capacity ring of raw distances. Pushing into a full
// ring evicts the oldest sample.
type History struct {
	buf   []float64
	pos   int
	count int
}

// NewHistory creates an empty history with the given capacity.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		buf: make([]float64, capacity),
	}
}

// Fill replaces the whole history with v, as if v had been pushed
// capacity times.
func (h *History) Fill(v float64) {
	for i := range h.buf {
		h.buf[i] = v
	}
	h.pos = 0
	h.count = len(h.buf)
}

// Push adds a value, evicting the oldest one when full.
func (h *History) Push(val float64) {
	h.buf[h.pos] = val
	h.pos = (h.pos + 1) % len(h.buf)
	if h.count < len(h.buf) {
		h.count++
	}
}

// Mean returns the arithmetic mean of the stored values, or 0 if empty.
func (h *History) Mean() float64 {
	if h.count == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range h.Values() {
		sum += v
	}
	return sum / float64(h.count)
}

// Values returns all stored values in chronological order.
func (h *History) Values() []float64 {
	if h.count == 0 {
		return nil
	}
	result := make([]float64, h.count)
	if h.count < len(h.buf) {
		copy(result, h.buf[:h.count])
	} else {
		n := copy(result, h.buf[h.pos:])
		copy(result[n:], h.buf[:h.pos])
	}
	return result
}

// Last returns the most recent value, or 0 if empty.
func (h *History) Last() float64 {
	if h.count == 0 {
		return 0
	}
	return h.buf[(h.pos-1+len(h.buf))%len(h.buf)]
}

// Len returns the number of stored values.
func (h *History) Len() int {
	return h.count
}

// Cap returns the capacity.
func (h *History) Cap() int {
	return len(h.buf)
}
