package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mvp-joe/docwatch/internal/agent"
	"github.com/mvp-joe/docwatch/internal/config"
	"github.com/mvp-joe/docwatch/internal/remote"
	"github.com/spf13/cobra"
)

var scanQuiet bool

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [root...]",
	Short: "Run a one-shot full scan and exit",
	Long: `Scan walks each root once, indexes new and changed files, and removes
records for files that disappeared since the last run. It does not watch.

With no arguments the roots from watch.roots are scanned, or the server's
roots when watch.root_source is remote.

Examples:
  docwatch scan
  docwatch scan ~/notes --quiet
`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVarP(&scanQuiet, "quiet", "q", false, "Disable progress bars and summaries")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRootArgs(cfg, args); err != nil {
		return err
	}
	if len(args) == 0 && cfg.Watch.RootSource == config.RootSourceRemote {
		roots, err := remote.New(cfg.Server.URL, cfg.Server.Timeout).FetchWatchRoots(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch watch roots: %w", err)
		}
		cfg.Watch.Roots = roots
	}
	if len(cfg.Watch.Roots) == 0 {
		return fmt.Errorf("no roots to scan: pass roots as arguments or set watch.roots")
	}

	closer, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	a, err := agent.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	progress := NewCLIProgressReporter(cmd.OutOrStdout(), scanQuiet)
	all, err := a.ScanOnce(ctx, cfg.Watch.Roots, progress)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if !scanQuiet && len(all) > 1 {
		total := 0
		for _, s := range all {
			total += s.Files
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Scanned %d roots, %s files\n", len(all), formatNumber(total))
	}
	return nil
}
