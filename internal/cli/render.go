package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/retrobench/retroviz/pkg/pipeline"
)

// renderCommand creates the render command for exporting a single route.
func (c *CLI) renderCommand() *cobra.Command {
	var cfgPath, dbPath, output, formatsStr, stockID, prefix string
	var detailed, refresh, noCache bool

	cmd := &cobra.Command{
		Use:   "render <route-id>",
		Short: "Render a route graph to JSON, DOT, or SVG files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.DB.Path = dbPath
			}

			opts := pipeline.Options{
				RouteID:  args[0],
				Mode:     pipeline.ModeSingle,
				StockID:  stockID,
				Prefix:   prefix,
				Formats:  parseFormats(formatsStr),
				Detailed: detailed,
				Refresh:  refresh,
				Logger:   c.Logger,
			}
			if output == "" {
				output = args[0]
			}
			return c.runPipeline(cmd, cfg, opts, output, noCache)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "config file (default retroviz.toml if present)")
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path (overrides config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path (default: route id)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot (comma-separated)")
	cmd.Flags().StringVar(&stockID, "stock", "", "stock id for in-stock annotation")
	cmd.Flags().StringVar(&prefix, "prefix", "", "node id prefix")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include status and identity in DOT labels")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if cached")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the graph cache")

	return cmd
}

// runPipeline executes the runner for render/diff and writes the artifacts.
func (c *CLI) runPipeline(cmd *cobra.Command, cfg *Config, opts pipeline.Options, output string, noCache bool) error {
	ctx := cmd.Context()

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	runner, err := c.newRunner(ctx, cfg, st, noCache)
	if err != nil {
		return fmt.Errorf("create runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Computing graph")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Pipeline failed: %v", err))
		return err
	}
	spinner.Stop()

	paths, err := writeArtifacts(output, result.Artifacts)
	if err != nil {
		return err
	}

	printSuccess("Rendered route graph")
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.BuildHit)
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// writeArtifacts writes each artifact next to base with its format as the
// extension and returns the written paths, sorted for stable output.
func writeArtifacts(base string, artifacts map[string][]byte) ([]string, error) {
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	paths := make([]string, 0, len(artifacts))
	for format, data := range artifacts {
		path := base + "." + format
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}
