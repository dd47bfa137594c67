package pipeline

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
)

// Status is the outcome of one table in a run.
type Status string

const (
	StatusWritten Status = "written"
	// StatusFailed covers a failed build of the table itself and a failed write.
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// TableReport is the outcome of one output table.
type TableReport struct {
	Table       string
	Status      Status
	Rows        int64
	Fingerprint uint64
	Duration    time.Duration
	Err         error
}

// Report summarizes a run.
type Report struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Tables   []TableReport
}

// Totals returns the number of written tables and the rows they hold.
func (r *Report) Totals() (written int, rows int64) {
	for _, t := range r.Tables {
		if t.Status == StatusWritten {
			written++
			rows += t.Rows
		}
	}
	return written, rows
}

// Table returns the report of one table.
func (r *Report) Table(name string) (TableReport, bool) {
	for _, t := range r.Tables {
		if t.Table == name {
			return t, true
		}
	}
	return TableReport{}, false
}

// Print writes a table summary of r to w.
func (r *Report) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "run %s (%s)\n", r.RunID, r.Duration.Round(time.Millisecond))
	fmt.Fprintln(tw, "TABLE\tSTATUS\tROWS\tFINGERPRINT\tELAPSED\tERROR")
	for _, t := range r.Tables {
		errText := ""
		if t.Err != nil {
			errText = t.Err.Error()
		}
		fp := "-"
		if t.Status == StatusWritten {
			fp = fmt.Sprintf("%016x", t.Fingerprint)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Table, t.Status, humanize.Comma(t.Rows), fp, t.Duration.Round(time.Millisecond), errText)
	}
	return tw.Flush()
}
