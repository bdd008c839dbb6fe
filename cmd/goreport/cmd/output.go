package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/goreport/internal/tracking"
)

// outputWriter is used for printing output, can be overridden in tests
var outputWriter io.Writer = os.Stdout

// setOutputWriter sets the output writer (used for testing)
func setOutputWriter(w io.Writer) {
	outputWriter = w
}

// resetOutputWriter resets output to stdout (used for testing)
func resetOutputWriter() {
	outputWriter = os.Stdout
}

const labelWidth = 16

func printHeader(format string, args ...interface{}) {
	title := fmt.Sprintf(format, args...)
	fmt.Fprintf(outputWriter, "\n=== %s ===\n", title)
}

func printSection(title string) {
	fmt.Fprintf(outputWriter, "[%s]\n", title)
	fmt.Fprintln(outputWriter, strings.Repeat("-", runewidth.StringWidth(title)+2))
}

// printField prints an aligned "label: value" line.
func printField(label string, value interface{}) {
	fmt.Fprintf(outputWriter, "  %s %v\n", runewidth.FillRight(label+":", labelWidth), value)
}

func statusText(ok bool) string {
	if ok {
		return color.Green.Sprint("success")
	}
	return color.Red.Sprint("failed")
}

// summaryFields lists the run properties shown after a report, in order.
var summaryFields = []struct {
	label string
	prop  string
}{
	{"Models", tracking.PropModelCount},
	{"Sources", tracking.PropSourceCount},
	{"Exposures", tracking.PropExposureCount},
	{"Test results", tracking.PropTestResultCount},
	{"Monitors", tracking.PropElementaryTestCount},
}

// printRunSummary prints the counters collected during a run.
func printRunSummary(run *tracking.Run) {
	for _, f := range summaryFields {
		if v, ok := run.Props.Get(f.prop); ok {
			printField(f.label, v)
		}
	}
}

// printDeliveries prints the per-sink delivery outcome.
func printDeliveries(run *tracking.Run, sinks []string) {
	if len(sinks) == 0 {
		printField("Delivery", "no sinks configured")
		return
	}
	for _, name := range sinks {
		v, _ := run.Props.Get(tracking.SentToProp(name))
		delivered, _ := v.(bool)
		printField("Sent to "+name, statusText(delivered))
	}
}
