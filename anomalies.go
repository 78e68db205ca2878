package main

import (
	"fmt"
	"io"

	"github.com/rkarmaka98/streamwatch/monitor"
	"github.com/rkarmaka98/streamwatch/sink"
)

// printSummary reports the run totals followed by the retained alerts.
func printSummary(w io.Writer, sum monitor.Summary, alerts *sink.Alerts) error {
	_, err := fmt.Fprintf(w, "\nProcessed %d samples (%d scored, %d skipped), %d anomalies\n",
		sum.Samples, sum.Scored, sum.Skipped, sum.Anomalies)
	if err != nil {
		return err
	}
	_, err = alerts.WriteTo(w)
	return err
}
