package monitor

import (
	"fmt"
	"math"

	"github.com/gammazero/deque"
	"github.com/montanaflynn/stats"
)

// Window is a fixed-capacity FIFO of the most recent samples.
type Window struct {
	buf  deque.Deque[float64]
	size int
}

// NewWindow creates an empty window holding at most size samples.
func NewWindow(size int) (*Window, error) {
	if size < 1 {
		return nil, fmt.Errorf("window size %d: %w", size, ErrInvalidConfig)
	}
	return &Window{size: size}, nil
}

// Push appends x, evicting the oldest sample once the window is over capacity.
func (w *Window) Push(x float64) {
	w.buf.PushBack(x)
	if w.buf.Len() > w.size {
		w.buf.PopFront()
	}
}

// Len returns the number of samples currently held.
func (w *Window) Len() int {
	return w.buf.Len()
}

// Cap returns the configured capacity.
func (w *Window) Cap() int {
	return w.size
}

// Full reports whether the window holds Cap samples.
func (w *Window) Full() bool {
	return w.buf.Len() == w.size
}

// Values returns a copy of the samples, oldest first.
func (w *Window) Values() []float64 {
	out := make([]float64, w.buf.Len())
	for i := range out {
		out[i] = w.buf.At(i)
	}
	return out
}

// Mean returns the arithmetic mean of the window.
func (w *Window) Mean() (float64, error) {
	m, err := w.moments()
	if err != nil {
		return 0, err
	}
	return m.Mean(), nil
}

// StdDev returns the population standard deviation of the window.
func (w *Window) StdDev() (float64, error) {
	m, err := w.moments()
	if err != nil {
		return 0, err
	}
	return m.StdDev(), nil
}

func (w *Window) meanStdDev() (float64, float64, error) {
	m, err := w.moments()
	if err != nil {
		return 0, 0, err
	}
	return m.Mean(), m.StdDev(), nil
}

// moments holds the window mean and standard deviation in units of scale,
// the largest absolute sample, so every intermediate stays within [-1, 1]
// even for samples near the float64 range.
type moments struct {
	scale float64
	mean  float64
	std   float64
}

func (m moments) Mean() float64   { return m.mean * m.scale }
func (m moments) StdDev() float64 { return m.std * m.scale }

// z scores x against the moments. A zero deviation scores 0; a score too
// large to represent saturates at ±MaxFloat64.
func (m moments) z(x float64) float64 {
	if m.std == 0 {
		return 0
	}
	z := (x/m.scale - m.mean) / m.std
	if math.IsInf(z, 0) {
		z = math.Copysign(math.MaxFloat64, z)
	}
	return z
}

func (w *Window) moments() (moments, error) {
	if w.buf.Len() == 0 {
		return moments{}, ErrInsufficientData
	}
	vals := w.Values()
	// Identical samples must report exactly zero; summing them can leave a
	// rounding residue in the mean.
	if constant(vals) {
		return moments{scale: 1, mean: vals[0]}, nil
	}

	scale := 0.0
	for _, v := range vals {
		scale = math.Max(scale, math.Abs(v))
	}
	for i := range vals {
		vals[i] /= scale
	}
	mean, err := stats.Mean(vals)
	if err != nil {
		return moments{}, fmt.Errorf("mean: %w", err)
	}
	std, err := stats.StandardDeviationPopulation(vals)
	if err != nil {
		return moments{}, fmt.Errorf("stddev: %w", err)
	}
	return moments{scale: scale, mean: mean, std: std}, nil
}

func constant(vals []float64) bool {
	for _, v := range vals[1:] {
		if v != vals[0] {
			return false
		}
	}
	return true
}
