package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/mvp-joe/docwatch/internal/indexer"
	"github.com/schollz/progressbar/v3"
)

// CLIProgressReporter implements indexer.ScanProgress with a progress bar.
// The number of files under a root is unknown up front, so the bar runs
// as a spinner with a running count.
type CLIProgressReporter struct {
	quiet   bool
	out     io.Writer
	fileBar *progressbar.ProgressBar
	changed int
}

// NewCLIProgressReporter creates a new CLI progress reporter writing to out.
func NewCLIProgressReporter(out io.Writer, quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{
		quiet: quiet,
		out:   out,
	}
}

func (c *CLIProgressReporter) OnScanStart(root string) {
	if c.quiet {
		return
	}
	c.changed = 0
	c.fileBar = progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Scanning "+root),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnFileScanned(path string, res indexer.ProcessResult) {
	if c.quiet {
		return
	}
	if res.Changed() {
		c.changed++
	}
	if c.fileBar != nil {
		c.fileBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnScanComplete(stats *indexer.ScanStats) {
	if c.quiet {
		return
	}
	if c.fileBar != nil {
		c.fileBar.Finish()
		c.fileBar = nil
	}

	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "✓ Scan complete: %s files in %s\n", formatNumber(stats.Files), formatDuration(stats.Duration))
	fmt.Fprintf(c.out, "  Added:     %s\n", formatNumber(stats.Added))
	fmt.Fprintf(c.out, "  Modified:  %s\n", formatNumber(stats.Modified))
	fmt.Fprintf(c.out, "  Unchanged: %s\n", formatNumber(stats.Unchanged))
	fmt.Fprintf(c.out, "  Deleted:   %s\n", formatNumber(stats.Deleted))
	if stats.Skipped > 0 {
		fmt.Fprintf(c.out, "  Skipped:   %s\n", formatNumber(stats.Skipped))
	}
	if stats.Failed > 0 {
		fmt.Fprintf(c.out, "  Failed:    %s\n", formatNumber(stats.Failed))
	}
}
