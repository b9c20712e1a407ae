package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	cachepkg "github.com/nodebanana-ai/nodebanana/pkg/cache/sqlite"
	"github.com/nodebanana-ai/nodebanana/pkg/config"
	"github.com/nodebanana-ai/nodebanana/pkg/engine"
	"github.com/nodebanana-ai/nodebanana/pkg/generator"
	"github.com/nodebanana-ai/nodebanana/pkg/graph"
	"github.com/nodebanana-ai/nodebanana/pkg/models"
	"github.com/nodebanana-ai/nodebanana/pkg/storage"
)

func newRunCmd() *cobra.Command {
	var (
		configPath string
		nodeID     string
	)

	cmd := &cobra.Command{
		Use:   "run <workflow.json>",
		Short: "Execute generator nodes in a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			g, err := graph.LoadWorkflow(args[0])
			if err != nil {
				return err
			}
			applyDefaults(g, cfg)

			e, cleanup, err := buildEngine(cfg, g)
			if err != nil {
				return err
			}
			defer cleanup()

			ids := g.GeneratorIDs()
			if nodeID != "" {
				if g.NodeByID(nodeID) == nil {
					return fmt.Errorf("no node %q in workflow", nodeID)
				}
				ids = []string{nodeID}
			}
			if len(ids) == 0 {
				fmt.Println("No generator nodes in workflow.")
				return nil
			}

			ctx := context.Background()
			var firstErr error
			for _, id := range ids {
				if err := e.Run(ctx, id); err != nil && firstErr == nil {
					firstErr = err
				}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NODE\tKIND\tSTATUS\tSEED\tCACHED\tOUTPUT")
			for _, id := range ids {
				st := e.State(id)
				node := g.NodeByID(id)
				out := st.Output.Text
				if node.Kind == models.ImageGeneration {
					out = st.Output.Image
				}
				if st.Status == models.StatusError {
					out = st.Error
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%v\t%s\n",
					id, node.Kind, st.Status, st.Seed, st.Cached, truncate(out, 48))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return firstErr
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().StringVar(&nodeID, "node", "", "run a single node instead of all generators")
	return cmd
}

// buildEngine wires the cache store, payload storage, and provider
// stack for a run. The returned cleanup closes everything in reverse
// order.
func buildEngine(cfg *config.Config, g *graph.Graph) (*engine.Engine, func(), error) {
	var store storage.Store
	if cfg.StoragePath != "" {
		b, err := storage.OpenBadger(cfg.StoragePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open payload storage: %w", err)
		}
		store = b
	} else {
		store = storage.NewMemory()
	}

	var cache engine.Cache
	var sqliteStore *cachepkg.Store
	if cfg.Cache.Enabled {
		c, err := cachepkg.New(cfg.DBPath)
		if err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		if cfg.Cache.SweepInterval > 0 {
			c.StartSweeper(cfg.Cache.SweepInterval)
		}
		cache = c
		sqliteStore = c
	}

	cleanup := func() {
		if sqliteStore != nil {
			_ = sqliteStore.Close()
		}
		_ = store.Close()
	}

	return engine.New(g, cache, store, buildGenerator(cfg)), cleanup, nil
}

// buildGenerator assembles the dispatcher: images go through the
// routed gateway, text goes to the first OpenAI-type provider when one
// is configured, otherwise through the gateway as well.
func buildGenerator(cfg *config.Config) generator.Generator {
	gateway := generator.NewGateway(generator.NewRouter(cfg))

	var text generator.Generator = gateway
	for _, p := range cfg.Providers {
		if p.Type == "openai" {
			text = generator.NewOpenAI(p)
			break
		}
	}
	return generator.NewDispatcher(gateway, text)
}

// applyDefaults fills unset generation settings from the config.
func applyDefaults(g *graph.Graph, cfg *config.Config) {
	for _, n := range g.Nodes {
		if data, ok := n.Data.(*graph.ImageGenData); ok {
			if data.Model == "" {
				data.Model = cfg.Defaults.Model
			}
			if data.Resolution == "" {
				data.Resolution = cfg.Defaults.Resolution
			}
			if data.AspectRatio == "" {
				data.AspectRatio = cfg.Defaults.AspectRatio
			}
		}
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
