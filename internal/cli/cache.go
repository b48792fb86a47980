package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"stock-analyzer/internal/store"
)

func newCacheCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local bar cache",
	}
	cmd.AddCommand(newCacheImportCmd(app))
	cmd.AddCommand(newCacheExportCmd(app))
	cmd.AddCommand(newCacheSymbolsCmd(app))
	return cmd
}

// ensureStore opens the sqlite cache even when caching is disabled in
// config, so cache commands always work against the configured path.
func ensureStore(app *App) (store.BarStore, error) {
	if app.Store != nil {
		return app.Store, nil
	}
	path := app.Config.Cache.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("opening bar cache: %w", err)
	}
	app.Store = s
	return s, nil
}

func newCacheImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <symbol> <csv-file>",
		Short: "Import bars from a CSV file into the cache",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			s, err := ensureStore(app)
			if err != nil {
				return err
			}
			bars, err := store.LoadCSV(args[1])
			if err != nil {
				return fmt.Errorf("loading bars: %w", err)
			}
			if err := s.SaveBars(cmd.Context(), args[0], "day", bars); err != nil {
				return fmt.Errorf("saving bars: %w", err)
			}
			out.Success(fmt.Sprintf("Imported %d bars for %s", len(bars), args[0]))
			return nil
		},
	}
}

func newCacheExportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "export <symbol> <csv-file>",
		Short: "Export cached bars for a symbol to a CSV file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			s, err := ensureStore(app)
			if err != nil {
				return err
			}
			bars, err := s.GetBars(cmd.Context(), args[0], "day", time.Time{}, time.Now())
			if err != nil {
				return fmt.Errorf("reading bars: %w", err)
			}
			if len(bars) == 0 {
				return fmt.Errorf("no cached bars for %s", args[0])
			}
			if err := store.WriteCSV(args[1], bars); err != nil {
				return fmt.Errorf("writing csv: %w", err)
			}
			out.Success(fmt.Sprintf("Wrote %d bars to %s", len(bars), args[1]))
			return nil
		},
	}
}

func newCacheSymbolsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "symbols",
		Short: "List cached symbols",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			s, err := ensureStore(app)
			if err != nil {
				return err
			}
			symbols, err := s.Symbols(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing symbols: %w", err)
			}
			if out.JSONMode() {
				return out.JSON(symbols)
			}
			if len(symbols) == 0 {
				out.Println("Cache is empty")
				return nil
			}
			table := tablewriter.NewTable(out.writer,
				tablewriter.WithHeader([]string{"Symbol", "Latest Bar"}))
			for _, sym := range symbols {
				latest := "-"
				if ts, err := s.LatestTimestamp(cmd.Context(), sym, "day"); err == nil {
					latest = ts.Format("2006-01-02")
				}
				table.Append([]string{sym, latest})
			}
			table.Render()
			return nil
		},
	}
}
