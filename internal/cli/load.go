package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// loadCommand creates the load command for importing CSV data.
func (c *CLI) loadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load benchmark or stock data from CSV files",
	}

	cmd.AddCommand(c.loadBenchmarkCommand())
	cmd.AddCommand(c.loadStockCommand())

	return cmd
}

// loadBenchmarkCommand creates the "load benchmark" subcommand.
//
// The CSV needs target_smiles, kind, and route columns; target_inchikey,
// model, and rank are optional. The route column carries the JSON route tree.
func (c *CLI) loadBenchmarkCommand() *cobra.Command {
	var cfgPath, dbPath string

	cmd := &cobra.Command{
		Use:   "benchmark <name> <file.csv>",
		Short: "Load a benchmark's targets and routes from CSV",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]
			cfg, err := LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.DB.Path = dbPath
			}

			st, err := openStore(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()

			p := newProgress(c.Logger)
			spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Loading %s", path))
			spinner.Start()

			stats, err := st.LoadBenchmarkCSV(cmd.Context(), name, f)
			if err != nil {
				spinner.StopWithError(fmt.Sprintf("Load failed: %v", err))
				return err
			}
			spinner.Stop()

			p.done(fmt.Sprintf("Loaded %d targets, %d routes", stats.Targets, stats.Routes))
			printSuccess("Benchmark %q ready", name)
			printDetail("Benchmark ID: %s", stats.BenchmarkID)
			printNextStep("Browse it", fmt.Sprintf("%s serve", appName))
			return nil
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "config file (default retroviz.toml if present)")
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path (overrides config)")

	return cmd
}

// loadStockCommand creates the "load stock" subcommand.
func (c *CLI) loadStockCommand() *cobra.Command {
	var cfgPath, dbPath string

	cmd := &cobra.Command{
		Use:   "stock <name> <file.csv>",
		Short: "Load a purchasable-compound stock from CSV",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]
			cfg, err := LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.DB.Path = dbPath
			}

			st, err := openStore(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()

			p := newProgress(c.Logger)
			spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Loading %s", path))
			spinner.Start()

			stats, err := st.LoadStockCSV(cmd.Context(), name, f)
			if err != nil {
				spinner.StopWithError(fmt.Sprintf("Load failed: %v", err))
				return err
			}
			spinner.Stop()

			p.done(fmt.Sprintf("Loaded %d stock items", stats.Items))
			printSuccess("Stock %q ready", name)
			printDetail("Stock ID: %s", stats.StockID)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "config file (default retroviz.toml if present)")
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path (overrides config)")

	return cmd
}
