package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/wesm/strend/internal/apikey"
	"github.com/wesm/strend/internal/config"
	"github.com/wesm/strend/internal/fileutil"
	"github.com/wesm/strend/internal/output"
	"github.com/wesm/strend/internal/search"
	"github.com/wesm/strend/internal/shodan"
	"github.com/wesm/strend/internal/tui"
)

var (
	cfgFile string
	homeDir string
	verbose bool
	cfg     *config.Config
	logger  = slog.Default()

	initialQuery  string
	initialFacets string
)

var rootCmd = &cobra.Command{
	Use:   "strend",
	Short: "Shodan Trends in the terminal",
	Long: `strend is a terminal dashboard for the Shodan Trends historical search API.

Search a query, optionally broken out by one facet, and browse how the
number of results changed month by month. Up to five queries are kept side
by side, and the chart on screen can be exported to CSV.

Keys:
  Tab/Shift+Tab  Move between panels
  Enter          Search (in the inputs) or toggle (in the lists)
  ↑/k, ↓/j       Move in a list
  Space          Toggle the item under the cursor
  a / x          Select all / clear
  Ctrl+E         Export the chart on screen
  Ctrl+C         Quit

Run 'strend init <API key>' once before the first search.`,
	Args: cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		if cmd.Name() == "version" {
			return nil
		}

		// Load config (--home is passed through so it influences
		// where config.toml is loaded from, like STREND_HOME).
		var err error
		cfg, err = config.Load(cfgFile, homeDir)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger = newLogger(os.Stderr)
		return nil
	},
	RunE: runDashboard,
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// validateDashboardFlags rejects facets without a query to break out.
func validateDashboardFlags(query, facets string) error {
	if facets != "" && query == "" {
		return errors.New("--facets requires --query")
	}
	return nil
}

func runDashboard(cmd *cobra.Command, args []string) error {
	if err := validateDashboardFlags(initialQuery, initialFacets); err != nil {
		return err
	}

	key, err := loadAPIKey()
	if err != nil {
		return err
	}

	// The dashboard owns the terminal, so logs go to a file.
	if err := cfg.EnsureHomeDir(); err != nil {
		return fmt.Errorf("create data directory %s: %w", cfg.HomeDir, err)
	}
	logFile, err := fileutil.SecureOpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger = newLogger(logFile)

	client := newClient(key)
	coord := search.NewCoordinator(client, search.WithLogger(logger))
	model := tui.New(coord, tui.Options{
		Query:        initialQuery,
		Facets:       initialFacets,
		ExportPath:   cfg.Export.Path,
		TickInterval: cfg.TickInterval(),
		StatusTicks:  cfg.UI.LogExpiryTicks,
		Logger:       logger,
	})

	logger.Info("dashboard started", "endpoint", client.Endpoint(), "query", initialQuery)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		if ctxErr := cmd.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}

// loadAPIKey reads the stored key.
func loadAPIKey() (string, error) {
	store, err := apikey.NewStore(cfg.API.KeyDir)
	if err != nil {
		return "", err
	}
	return store.Load()
}

// newClient builds an API client from the loaded config. STREND_API_URL,
// when set, wins over the configured endpoint.
func newClient(key string) *shodan.Client {
	opts := []shodan.Option{
		shodan.WithInfoEndpoint(cfg.API.InfoEndpoint),
		shodan.WithTimeout(cfg.Timeout()),
		shodan.WithRateLimit(cfg.API.RateLimitQPS),
		shodan.WithLogger(logger),
	}
	if os.Getenv(shodan.EndpointEnv) == "" {
		opts = append(opts, shodan.WithEndpoint(cfg.API.Endpoint))
	}
	return shodan.NewClient(key, opts...)
}

// newPrinter returns a status printer for cmd's output streams.
func newPrinter(cmd *cobra.Command) *output.Printer {
	return output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.UseColors(os.Stdout))
}

// Execute runs the root command with a background context.
// Prefer ExecuteContext for signal-aware execution.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the given context,
// enabling graceful shutdown when the context is cancelled.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.strend/config.toml)")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "home directory (overrides STREND_HOME)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().StringVarP(&initialQuery, "query", "q", "", "search to run on startup")
	rootCmd.Flags().StringVarP(&initialFacets, "facets", "f", "", "facet to break the startup search out by")
}
