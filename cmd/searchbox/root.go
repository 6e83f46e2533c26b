package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/repairhub/repair-search/internal/app"
	"github.com/repairhub/repair-search/internal/config"
	"github.com/repairhub/repair-search/internal/models"
	"github.com/repairhub/repair-search/internal/observability"
	"github.com/repairhub/repair-search/internal/tui"
)

type options struct {
	configPath string
	fixture    string
	userID     string
	logFile    string
	json       bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "searchbox",
		Short: "Search the repair marketplace from the terminal",
		Long: `Opens an interactive search box over services, spare parts, shops,
brand pages and articles. Signed-in shop owners also see their inventory.

Controls:
  ↑/↓    - Move the highlight
  Enter  - Open the highlighted result and print its URL
  Esc    - Clear the query
  Tab    - Close the dropdown
  Ctrl+C - Quit`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to configuration file")
	root.PersistentFlags().StringVar(&opts.fixture, "fixture", "", "serve a YAML fixture instead of the configured store")
	root.PersistentFlags().StringVarP(&opts.userID, "user", "u", "", "signed-in user id")
	root.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "write logs to this file instead of discarding them")

	root.AddCommand(newQueryCmd(opts))
	return root
}

func newQueryCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Run one search and print the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts, strings.Join(args, " "))
		},
	}
	cmd.Flags().BoolVar(&opts.json, "json", false, "output the response as JSON")
	return cmd
}

// loadConfig reads the config file when given. Without one the defaults are
// used with the memory store, and --fixture always selects the memory store.
func loadConfig(opts *options) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	} else {
		cfg.Store.Driver = config.DriverMemory
	}

	if opts.fixture != "" {
		cfg.Store.Driver = config.DriverMemory
		cfg.Store.FixturePath = opts.fixture
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// newLogger discards logs unless a file is given, since the terminal belongs
// to the search box.
func newLogger(cfg *config.Config, opts *options) (*zap.Logger, error) {
	if opts.logFile == "" {
		return zap.NewNop(), nil
	}
	return observability.NewLogger(cfg.Observability.LogLevel, opts.logFile)
}

func setup(ctx context.Context, opts *options) (*app.App, *zap.Logger, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Sync()
		return nil, nil, err
	}
	return a, logger, nil
}

func runTUI(cmd *cobra.Command, opts *options) error {
	ctx, cancel := context.WithCancel(cmdContext(cmd))
	defer cancel()

	a, logger, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer a.Close()

	model := tui.New(ctx, a.Aggregator, opts.userID)
	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("search box: %w", err)
	}

	if url := model.Selected(); url != "" {
		fmt.Fprintln(cmd.OutOrStdout(), url)
	}
	return nil
}

func runQuery(cmd *cobra.Command, opts *options, text string) error {
	ctx, cancel := context.WithCancel(cmdContext(cmd))
	defer cancel()

	a, logger, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer a.Close()

	resp := a.Aggregator.Search(ctx, models.SearchRequest{Query: text, UserID: opts.userID})

	if opts.json {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling response: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	printHits(cmd.OutOrStdout(), resp)
	return nil
}

func printHits(w io.Writer, resp models.SearchResponse) {
	if len(resp.Hits) == 0 {
		fmt.Fprintf(w, "No results for %q\n", resp.Query)
	}

	var prev models.Category = -1
	for _, h := range resp.Hits {
		if h.Category != prev {
			fmt.Fprintln(w, h.Category)
			prev = h.Category
		}
		fmt.Fprintf(w, "  %s  %s\n", h.Name, h.URL)
	}

	for _, r := range resp.Sources {
		if r.Status == models.SourceFailed {
			fmt.Fprintf(w, "warning: %s unavailable: %s\n", r.Source, r.Error)
		}
	}
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
