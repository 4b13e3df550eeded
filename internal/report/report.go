// Package report renders a finished run as plain text.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"saoke/internal/core"
	"saoke/internal/fetch"
	"saoke/internal/services"
)

const barWidth = 40

// Write prints the summary and histogram of res.
func Write(w io.Writer, res *services.Result) error {
	s := res.Summary
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	mean := "-"
	if !s.Empty() {
		mean = core.FormatMoney(s.Mean)
	}
	fmt.Fprintf(tw, "Source:\t%s\n", res.Source)
	fmt.Fprintf(tw, "Run:\t%s\n", res.RunID)
	fmt.Fprintf(tw, "Transferred:\t%s in %s\n", core.FormatSize(float64(res.Bytes)), res.Duration.Round(time.Millisecond))
	fmt.Fprintf(tw, "Records:\t%s\n", core.FormatNumber(int64(s.Count)))
	if st := res.ParseStats; st.Malformed > 0 || st.InvalidAmounts > 0 {
		fmt.Fprintf(tw, "Irregular:\t%d malformed, %d invalid amounts\n", st.Malformed, st.InvalidAmounts)
	}
	fmt.Fprintf(tw, "Total:\t%s\n", core.FormatMoney(float64(s.Total)))
	fmt.Fprintf(tw, "Mean:\t%s\n", mean)
	fmt.Fprintf(tw, "Max:\t%s\n", core.FormatMoney(float64(s.Max)))
	fmt.Fprintf(tw, "Min:\t%s\n", core.FormatMoney(float64(s.Min)))
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(res.Buckets) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Histogram:")

	peak := 0
	for _, b := range res.Buckets {
		peak = max(peak, b.Count)
	}
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, b := range res.Buckets {
		fmt.Fprintf(tw, "%s\t%s\t %s\n", b.Label, core.FormatNumber(int64(b.Count)), bar(b.Count, peak))
	}
	return tw.Flush()
}

func bar(count, peak int) string {
	if peak == 0 || count == 0 {
		return ""
	}
	n := count * barWidth / peak
	if n == 0 {
		n = 1
	}
	return strings.Repeat("#", n)
}

// ProgressPrinter writes transfer observations as lines, at most one per
// interval plus the final one of each run. When the total is unknown the
// final observation cannot be recognized, so callers Flush after the run.
type ProgressPrinter struct {
	mu       sync.Mutex
	w        io.Writer
	interval time.Duration
	last     time.Time
	pending  *fetch.Progress
	now      func() time.Time
}

func NewProgressPrinter(w io.Writer, interval time.Duration) *ProgressPrinter {
	return &ProgressPrinter{w: w, interval: interval, now: time.Now}
}

// ObserveProgress implements ports.ProgressObserver.
func (p *ProgressPrinter) ObserveProgress(_ string, pr fetch.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	done := pr.TotalKnown() && pr.Loaded >= pr.Total
	now := p.now()
	if !done && !p.last.IsZero() && now.Sub(p.last) < p.interval {
		p.pending = &pr
		return
	}
	p.last = now
	p.print(pr)
}

// Flush prints the latest observation if it was held back by throttling.
func (p *ProgressPrinter) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending != nil {
		p.print(*p.pending)
	}
}

func (p *ProgressPrinter) print(pr fetch.Progress) {
	p.pending = nil
	line := pr.String()
	if pct, ok := pr.Percent(); ok {
		line = fmt.Sprintf("%s %3.0f%%", line, pct)
	}
	fmt.Fprintln(p.w, line)
}
