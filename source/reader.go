package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rkarmaka98/streamwatch/monitor"
)

// Reader parses one sample per line from r. Blank lines and lines starting
// with '#' are ignored. When Column is non-negative each line is split on
// commas and that field is used.
type Reader struct {
	scanner *bufio.Scanner
	column  int
	line    int
}

// NewReader reads whole lines as samples.
func NewReader(r io.Reader) *Reader {
	return NewColumnReader(r, -1)
}

// NewColumnReader reads the zero-based comma-separated column of each line.
func NewColumnReader(r io.Reader, column int) *Reader {
	return &Reader{scanner: bufio.NewScanner(r), column: column}
}

// Next returns the next parsed sample. Unparseable lines produce an error
// wrapping monitor.ErrInvalidSample so the caller can skip them.
func (r *Reader) Next(ctx context.Context) (float64, error) {
	for r.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		r.line++
		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if r.column >= 0 {
			fields := strings.Split(text, ",")
			if r.column >= len(fields) {
				return 0, fmt.Errorf("line %d: no column %d: %w", r.line, r.column, monitor.ErrInvalidSample)
			}
			text = strings.TrimSpace(fields[r.column])
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, fmt.Errorf("line %d: %q: %w", r.line, text, monitor.ErrInvalidSample)
		}
		return v, nil
	}
	if err := r.scanner.Err(); err != nil {
		return 0, fmt.Errorf("read line %d: %w", r.line+1, err)
	}
	return 0, io.EOF
}
