package main

import (
	"fmt"

	"github.com/spf13/cobra"

	cachepkg "github.com/nodebanana-ai/nodebanana/pkg/cache/sqlite"
)

func newCacheCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the generation cache",
	}

	openStore := func() (*cachepkg.Store, error) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return nil, err
		}
		return cachepkg.New(cfg.DBPath)
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			stats, err := c.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Entries: %d\nSize:    ~%d bytes\nHits:    %d\nMisses:  %d\n",
				stats.Entries, stats.EstimatedSize, stats.Hits, stats.Misses)
			return nil
		},
	}

	var (
		nodeID      string
		expiredOnly bool
	)
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx := cmd.Context()
			switch {
			case nodeID != "":
				n, err := c.ClearByNode(ctx, nodeID)
				if err != nil {
					return err
				}
				fmt.Printf("Cleared %d entries for node %s.\n", n, nodeID)
			case expiredOnly:
				n, err := c.CleanExpired(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Cleared %d expired entries.\n", n)
			default:
				if err := c.ClearAll(ctx); err != nil {
					return err
				}
				fmt.Println("All cache entries cleared.")
			}
			return nil
		},
	}
	clearCmd.Flags().StringVar(&nodeID, "node", "", "only clear entries for this node")
	clearCmd.Flags().BoolVar(&expiredOnly, "expired", false, "only clear expired entries")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}
