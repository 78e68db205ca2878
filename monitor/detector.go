package monitor

import (
	"fmt"
	"math"
)

// DefaultThreshold is the |z| above which a sample is flagged.
const DefaultThreshold = 3.0

// State is the detector lifecycle phase.
type State int

const (
	// StateWarmingUp means the window has not yet filled; no scores are produced.
	StateWarmingUp State = iota
	// StateActive means every sample is scored. It is terminal.
	StateActive
)

func (s State) String() string {
	switch s {
	case StateWarmingUp:
		return "warming_up"
	case StateActive:
		return "active"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is the outcome of scoring one sample. Scored is false during
// warm-up, in which case Score is zero and Anomaly is false.
type Result struct {
	Score   float64
	Scored  bool
	Anomaly bool
}

// ZDetector flags samples whose z-score against the preceding window
// exceeds a threshold.
type ZDetector struct {
	window    *Window
	threshold float64
}

// NewZDetector builds a windowed z-score detector of size n.
func NewZDetector(n int, threshold float64) (*ZDetector, error) {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold < 0 {
		return nil, fmt.Errorf("threshold %v: %w", threshold, ErrInvalidConfig)
	}
	w, err := NewWindow(n)
	if err != nil {
		return nil, err
	}
	return &ZDetector{window: w, threshold: threshold}, nil
}

// Detect scores x against the current window and then slides x into it.
// The score never includes x itself.
func (d *ZDetector) Detect(x float64) (Result, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Result{}, fmt.Errorf("%v: %w", x, ErrInvalidSample)
	}
	if !d.window.Full() {
		d.window.Push(x)
		return Result{}, nil
	}
	m, err := d.window.moments()
	if err != nil {
		return Result{}, err
	}
	z := m.z(x)
	// slide window
	d.window.Push(x)
	return Result{
		Score:   z,
		Scored:  true,
		Anomaly: math.Abs(z) > d.threshold,
	}, nil
}

// State reports whether the detector is still warming up.
func (d *ZDetector) State() State {
	if d.window.Full() {
		return StateActive
	}
	return StateWarmingUp
}

// Threshold returns the configured |z| limit.
func (d *ZDetector) Threshold() float64 {
	return d.threshold
}

// Size returns the window capacity.
func (d *ZDetector) Size() int {
	return d.window.Cap()
}

// Window returns a snapshot of the current baseline, oldest first.
func (d *ZDetector) Window() []float64 {
	return d.window.Values()
}

// Baseline returns the mean and population standard deviation the next
// sample would be scored against.
func (d *ZDetector) Baseline() (mean, std float64, err error) {
	return d.window.meanStdDev()
}
