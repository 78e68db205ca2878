// Package sink holds monitor.Sink implementations that render, export or
// collect detection results.
package sink

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/rkarmaka98/streamwatch/monitor"
)

// Console writes one line per observation, highlighting anomalies.
type Console struct {
	w             io.Writer
	anomaliesOnly bool

	dim    lipgloss.Style
	plain  lipgloss.Style
	strong lipgloss.Style
}

// NewConsole renders to w. With anomaliesOnly set, ordinary samples are
// not printed.
func NewConsole(w io.Writer, anomaliesOnly bool) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:             w,
		anomaliesOnly: anomaliesOnly,
		dim:           r.NewStyle().Faint(true),
		plain:         r.NewStyle(),
		strong:        r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}
}

func (c *Console) Update(obs monitor.Observation) error {
	var line string
	switch {
	case obs.Anomaly && c.anomaliesOnly:
		line = c.strong.Render(fmt.Sprintf("Detected anomaly with score: %.4f", obs.Score)) +
			fmt.Sprintf(" (index %d, value %.3f)", obs.Index, obs.Value)
	case c.anomaliesOnly:
		return nil
	case obs.Anomaly:
		line = c.strong.Render(fmt.Sprintf("%6d  %12.3f  z=%+8.3f  ANOMALY", obs.Index, obs.Value, obs.Score))
	case obs.Scored:
		line = c.plain.Render(fmt.Sprintf("%6d  %12.3f  z=%+8.3f", obs.Index, obs.Value, obs.Score))
	default:
		line = c.dim.Render(fmt.Sprintf("%6d  %12.3f  warming up", obs.Index, obs.Value))
	}
	_, err := fmt.Fprintln(c.w, line)
	return err
}

func (c *Console) Finalize() error { return nil }
