// Package cli implements the insetkit command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/insetkit/pkg/buildinfo"
	"github.com/matzehuels/insetkit/pkg/config"
	"github.com/matzehuels/insetkit/pkg/coordinator"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "insetkit"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is the --config flag; empty means the default lookup.
	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "insetkit places insets over annotation canvases",
		Long:         `insetkit replays recorded annotation draw cycles through the inset placement engine and renders the resulting layouts.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default: ./insetkit.toml, then $XDG_CONFIG_HOME/insetkit/insetkit.toml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig loads the --config file, or the first default file that exists,
// and applies its log level.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := c.findConfig()
	if err != nil {
		return config.Config{}, err
	}
	c.SetLogLevel(levelFor(cfg.Log.Level, c.verbose))
	return cfg, nil
}

func (c *CLI) findConfig() (config.Config, error) {
	if c.configPath != "" {
		return config.Load(c.configPath)
	}
	for _, path := range configCandidates() {
		if configFileExists(path) {
			c.Logger.Debug("Using config", "path", path)
			return config.Load(path)
		}
	}
	return config.Default(), nil
}

// options loads the configuration and converts it to coordinator options.
func (c *CLI) options(mode string) (coordinator.Options, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return coordinator.Options{}, err
	}
	opts := cfg.Options(c.Logger)
	if mode != "" {
		opts.Mode = mode
	}
	return opts, nil
}

// =============================================================================
// Paths
// =============================================================================

// configCandidates returns the default config locations in lookup order.
func configCandidates() []string {
	paths := []string{config.DefaultFile}
	if dir, err := configDir(); err == nil {
		paths = append(paths, filepath.Join(dir, config.DefaultFile))
	}
	return paths
}

// configDir returns the config directory using XDG standard (~/.config/insetkit/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
