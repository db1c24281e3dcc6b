package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pders01/textodon/internal/config"
	"github.com/pders01/textodon/internal/debuglog"
	"github.com/pders01/textodon/internal/feed"
	"github.com/pders01/textodon/internal/render"
	"github.com/pders01/textodon/internal/search"
	"github.com/pders01/textodon/internal/storage"
	"github.com/pders01/textodon/internal/timeline"
	"github.com/pders01/textodon/internal/tui"
	"github.com/pders01/textodon/internal/validation"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath     string
	limit          int
	logLevel       string
	allowLocal     bool
	quiet          bool
	generateConfig bool
)

var rootCmd = &cobra.Command{
	Use:   "textodon [instance]",
	Short: "Read a Mastodon instance's public feed in the terminal",
	Long: `textodon shows the public timeline of a Mastodon instance, or the
posts for a single hashtag, rendered for the terminal.

The instance defaults to the one in the config file.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("textodon %s\n", Version)
		fmt.Println("Mastodon public feed reader")
		fmt.Println("github.com/pders01/textodon")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		if err := writeDefaultConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "", "Path to configuration file")
	flags.IntVarP(&limit, "limit", "L", 20, "Posts per page (overrides config)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, off")
	flags.BoolVar(&allowLocal, "allow-local", false, "Allow localhost and private network instances")
	flags.BoolVar(&quiet, "quiet", false, "Skip startup banner")
	flags.BoolVar(&generateConfig, "generate-config", false, "Generate default config file")

	configCmd.AddCommand(configGenCmd)
	rootCmd.AddCommand(versionCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func writeDefaultConfig() error {
	configFile := filepath.Join(config.DefaultDir(), "config.toml")
	if err := config.GenerateDefaultConfig(configFile); err != nil {
		return err
	}
	fmt.Printf("Generated default configuration at: %s\n", configFile)
	return nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	if generateConfig {
		return writeDefaultConfig()
	}

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.Path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	defer debuglog.Close()
	debuglog.Infof("textodon %s starting against %s", Version, cfg.Instance.URL)

	renderer, err := render.NewDefault(cfg.UI.MarkdownStyle)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}

	state := timeline.New(feed.NewFetcher(cfg), renderer, cfg.Feed.HTTPTimeout)
	defer state.Close()

	var store *storage.Store
	if cfg.History.Enabled {
		store, err = storage.NewStore(cfg.History.Path)
		if err != nil {
			debuglog.Warnf("tag history disabled: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: tag history disabled: %v\n", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	index, err := search.NewIndex()
	if err != nil {
		debuglog.Warnf("search index unavailable: %v", err)
		index = nil
	} else {
		defer index.Close()
	}

	if !quiet && term.IsTerminal(int(os.Stdout.Fd())) {
		tui.ShowBanner(Version, cfg.Instance.URL)
	}

	p := tea.NewProgram(tui.NewApp(cfg, state, store, index), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// loadConfig layers the instance argument and explicit flags over the
// config file, then validates the instance URL.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if len(args) == 1 {
		cfg.Instance.URL = args[0]
	}
	flags := cmd.Flags()
	if flags.Changed("limit") {
		cfg.Instance.Limit = limit
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("allow-local") {
		cfg.Instance.AllowLocal = allowLocal
	}

	validator := validation.NewInstanceURLValidator()
	if cfg.Instance.AllowLocal {
		validator = validation.NewPermissiveInstanceURLValidator()
	}
	instance, err := validator.ValidateAndNormalize(cfg.Instance.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid instance %q: %w", cfg.Instance.URL, err)
	}
	cfg.Instance.URL = instance

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
