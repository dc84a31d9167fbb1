package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/mvp-joe/docwatch/internal/state"
	"github.com/spf13/cobra"
)

var (
	statePrefix string
	stateJSON   bool
)

// stateCmd represents the state command
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the local index state",
	Long: `Show the records in the local state file: one entry per indexed file
with its current version, size, chunk count and content hash.`,
	RunE: runState,
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.Flags().StringVar(&statePrefix, "path", "", "Only show records under this path")
	stateCmd.Flags().BoolVar(&stateJSON, "json", false, "Output as JSON")
}

func runState(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := state.Open(cfg.State.Path)
	if err != nil {
		return err
	}

	records := store.Snapshot()
	if statePrefix != "" {
		prefix, err := filepath.Abs(statePrefix)
		if err != nil {
			return fmt.Errorf("invalid path %s: %w", statePrefix, err)
		}
		records = store.Under(prefix)
	}

	if stateJSON {
		return writeJSON(cmd.OutOrStdout(), records)
	}
	formatState(cmd.OutOrStdout(), store.Path(), records, time.Now())
	return nil
}

// formatState prints records sorted by path.
func formatState(out io.Writer, statePath string, records map[string]state.FileRecord, now time.Time) {
	fmt.Fprintf(out, "State file: %s\n", statePath)
	if len(records) == 0 {
		fmt.Fprintln(out, "No files indexed")
		return
	}

	paths := make([]string, 0, len(records))
	var totalChunks int
	var totalSize int64
	for p, rec := range records {
		paths = append(paths, p)
		totalChunks += len(rec.ChunkIDs)
		totalSize += rec.Size
	}
	sort.Strings(paths)

	fmt.Fprintf(out, "Indexed files (%s, %s chunks, %s):\n", formatNumber(len(records)), formatNumber(totalChunks), formatBytes(totalSize))
	for _, p := range paths {
		rec := records[p]
		fmt.Fprintf(out, "  %s\n", p)
		fmt.Fprintf(out, "    Version:  %d\n", rec.Version)
		fmt.Fprintf(out, "    Size:     %s\n", formatBytes(rec.Size))
		fmt.Fprintf(out, "    Chunks:   %d\n", len(rec.ChunkIDs))
		fmt.Fprintf(out, "    Hash:     %s\n", shortHash(rec.Hash))
		fmt.Fprintf(out, "    Modified: %s\n", formatTimeSince(rec.ModTime, now))
	}
}

func writeJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}
