package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mvp-joe/docwatch/internal/agent"
	"github.com/mvp-joe/docwatch/internal/config"
	"github.com/spf13/cobra"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [root...]",
	Short: "Watch directory trees and keep the index in sync",
	Long: `Watch runs until interrupted. It keeps the watched roots in sync with
the configured root source, scans every root as it is added, and processes
create, modify and delete events as they happen.

Roots given on the command line replace watch.roots and force the static
root source.

Examples:
  # Watch the roots from .docwatch/config.yml (or the server)
  docwatch watch

  # Watch two directories
  docwatch watch ~/notes ~/papers
`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRootArgs(cfg, args); err != nil {
		return err
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

	log.Printf("docwatch %s starting (state: %s)", Version, cfg.State.Path)
	if err := a.Run(ctx); err != nil {
		return err
	}
	log.Printf("✓ Stopped")
	return nil
}

// applyRootArgs overrides the configured roots with command-line roots.
func applyRootArgs(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return nil
	}
	roots := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("invalid root %s: %w", arg, err)
		}
		roots = append(roots, abs)
	}
	cfg.Watch.Roots = roots
	cfg.Watch.RootSource = config.RootSourceStatic
	return nil
}
