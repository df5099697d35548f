package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/forensicq/pkg/types"
)

var (
	flagSource   string
	flagCategory bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <dir>",
	Short: "Ingest a directory into the durable store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Close() }()

		sum, err := eng.Indexer.Scan(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]interface{}{
			"scan_id":         sum.ScanID,
			"files_found":     sum.Discovered,
			"files_processed": sum.Processed,
			"files_skipped":   sum.Skipped,
			"files_failed":    sum.Errored,
			"package_count":   sum.PackageCount,
			"packages":        eng.Searcher.ListPackages(),
			"batches_failed":  sum.BatchesFailed,
			"duration_ms":     sum.Duration.Milliseconds(),
		})
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <keyword>",
	Short: "Search indexed content",
	Long: `Search indexed content for a keyword.

Only the durable tier outlives a process with the in-memory cache backend,
so the default source here is durable. Use --source cache with the redis
backend. With --category the argument names a content category instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Close() }()

		var res *types.QueryResult
		if flagCategory {
			res, err = eng.Searcher.QueryCategory(cmd.Context(), args[0])
		} else {
			source, perr := types.ParseSource(flagSource)
			if perr != nil {
				return perr
			}
			res, err = eng.Searcher.Query(cmd.Context(), args[0], source)
		}
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]interface{}{
			"source":  res.Source,
			"cost_ms": res.CostMS(),
			"count":   res.Count(),
			"data":    res.Matches,
		})
	},
}

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "List package names stored in the durable tier",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Close() }()

		names, err := eng.Store.Packages(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]interface{}{"data": names})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show durable and cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Close() }()

		stats, err := eng.Searcher.Stats(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, stats)
	},
}

func init() {
	queryCmd.Flags().StringVar(&flagSource, "source", string(types.SourceDurable), "tier to search: cache or durable")
	queryCmd.Flags().BoolVar(&flagCategory, "category", false, "treat the argument as a category name")
	rootCmd.AddCommand(scanCmd, queryCmd, packagesCmd, statsCmd)
}
