package source

import (
	"context"
	"io"
)

// Slice yields a fixed sequence of samples.
type Slice struct {
	vals []float64
	pos  int
}

// NewSlice copies vals into a new source.
func NewSlice(vals ...float64) *Slice {
	return &Slice{vals: append([]float64(nil), vals...)}
}

func (s *Slice) Next(context.Context) (float64, error) {
	if s.pos >= len(s.vals) {
		return 0, io.EOF
	}
	v := s.vals[s.pos]
	s.pos++
	return v, nil
}
