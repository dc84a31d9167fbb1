package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mvp-joe/docwatch/internal/config"
	"github.com/mvp-joe/docwatch/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "docwatch",
	Short: "docwatch - keep a document index in sync with the filesystem",
	Long: `docwatch watches directory trees, detects file changes, and keeps a
vector index, change notifications and per-file version history in sync
with what is on disk.

Configuration is read from .docwatch/config.yml in the working directory
(or --config), with DOCWATCH_* environment variables taking precedence.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .docwatch/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig lets DOCWATCH_CONFIG and DOCWATCH_VERBOSE stand in for the flags.
func initConfig() {
	viper.SetEnvPrefix("DOCWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// loadConfig loads the project configuration relative to the working directory.
func loadConfig() (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	if file := viper.GetString("config"); file != "" {
		return config.NewFileLoader(wd, file).Load()
	}
	return config.LoadConfigFromDir(wd)
}

// setupLogging configures log output for cfg. Callers close the result.
func setupLogging(cfg *config.Config) (io.Closer, error) {
	closer, err := logging.Setup(cfg.ToLoggingConfig(viper.GetBool("verbose")))
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return closer, nil
}
