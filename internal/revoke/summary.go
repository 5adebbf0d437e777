package revoke

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// WriteSummary prints the per-outcome counts as an aligned table. Kinds with
// a zero count are omitted except RemovalSucceeded. A closing line says
// whether any row needs operator follow-up.
func (b *BatchResult) WriteSummary(w io.Writer) error {
	title := "Summary"
	if b.DryRun {
		title = "Summary (dry run)"
	}
	if b.Interrupted {
		title += " - interrupted"
	}
	if _, err := fmt.Fprintf(w, "\n%s: %d row(s) in %s\n", title, b.Total(), b.Duration.Round(time.Millisecond)); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "OUTCOME\tROWS\n")
	_, _ = fmt.Fprintf(tw, "-------\t----\n")
	for _, kind := range OutcomeKinds {
		n := b.Count(kind)
		if n == 0 && kind != RemovalSucceeded {
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\n", kind, n)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	verdict := "No rows need follow-up."
	if b.HasActionable() {
		verdict = "Some rows need follow-up: check RemovalFailed, LookupFailed, InvalidIdentifier and NotAttempted above."
	}
	_, err := fmt.Fprintln(w, verdict)
	return err
}
