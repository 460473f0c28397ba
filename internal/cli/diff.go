package cli

import (
	"github.com/spf13/cobra"

	"github.com/retrobench/retroviz/pkg/pipeline"
)

// diffCommand creates the diff command for comparing two routes.
func (c *CLI) diffCommand() *cobra.Command {
	var cfgPath, dbPath, output, formatsStr, mode, prefix string
	var primary, detailed, refresh, noCache bool

	cmd := &cobra.Command{
		Use:   "diff <route-id> <other-route-id>",
		Short: "Render a diff of two routes",
		Long: `Diff renders a comparison of two route trees. In side-by-side mode the
first route is laid out on its own, with each node marked as match or
extension against the second route, and ghost placeholders added for
subtrees only the second route has. In overlay mode (the default) both
trees merge into a single graph; edges leading into ghost nodes, the
ones only the first route has, are drawn dashed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.DB.Path = dbPath
			}

			opts := pipeline.Options{
				RouteID:      args[0],
				OtherRouteID: args[1],
				Mode:         mode,
				IsPrimary:    primary,
				Prefix:       prefix,
				Formats:      parseFormats(formatsStr),
				Detailed:     detailed,
				Refresh:      refresh,
				Logger:       c.Logger,
			}
			if output == "" {
				output = args[0] + "-vs-" + args[1]
			}
			return c.runPipeline(cmd, cfg, opts, output, noCache)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "config file (default retroviz.toml if present)")
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path (overrides config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path (default: <id>-vs-<id>)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot (comma-separated)")
	cmd.Flags().StringVarP(&mode, "mode", "m", pipeline.ModeOverlay, "diff mode: overlay or side-by-side")
	cmd.Flags().BoolVar(&primary, "primary", false, "render the reference side of a side-by-side diff")
	cmd.Flags().StringVar(&prefix, "prefix", "", "node id prefix")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include status and identity in DOT labels")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if cached")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the graph cache")

	return cmd
}
