package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/mvp-joe/docwatch/internal/config"
	"github.com/mvp-joe/docwatch/internal/history"
	"github.com/mvp-joe/docwatch/internal/indexer"
	"github.com/spf13/cobra"
)

var (
	historyDiff bool
	historyJSON bool
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [path]",
	Short: "Show the version history of a file",
	Long: `Show the recorded versions of a file from the local version log.
Without a path, list every file that has history.

Only available when history.backend is local.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVarP(&historyDiff, "diff", "d", false, "Print the diff of each version")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.History.Backend != config.BackendLocal {
		return fmt.Errorf("history is stored on the server (history.backend is %q)", cfg.History.Backend)
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		paths, err := store.Paths(ctx)
		if err != nil {
			return err
		}
		if historyJSON {
			return writeJSON(out, paths)
		}
		if len(paths) == 0 {
			fmt.Fprintln(out, "No history recorded")
			return nil
		}
		for _, p := range paths {
			fmt.Fprintln(out, p)
		}
		return nil
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path %s: %w", args[0], err)
	}
	records, err := store.List(ctx, path)
	if err != nil {
		return err
	}
	if historyJSON {
		return writeJSON(out, records)
	}
	formatHistory(out, path, records, historyDiff)
	return nil
}

// formatHistory prints one block per version, oldest first.
func formatHistory(out io.Writer, path string, records []indexer.VersionRecord, withDiff bool) {
	if len(records) == 0 {
		fmt.Fprintf(out, "No history for %s\n", path)
		return
	}

	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%s (%d versions)", path, len(records))))
	for _, rec := range records {
		fmt.Fprintf(out, "  v%d  %-8s  %s  %s\n",
			rec.Version, rec.ChangeType, rec.CreatedAt.Local().Format("2006-01-02 15:04:05"), shortHash(rec.Hash))
		if rec.Summary != "" {
			fmt.Fprintf(out, "      %s\n", mutedStyle.Render(rec.Summary))
		}
		if withDiff {
			for _, line := range rec.Diff {
				fmt.Fprintf(out, "      %s\n", styleDiffLine(line))
			}
		}
	}
}
