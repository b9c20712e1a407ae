package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nodebanana-ai/nodebanana/pkg/graph"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <workflow.json>",
		Short: "List the nodes and edges of a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := graph.LoadWorkflow(args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NODE\tKIND\tINPUTS")
			for _, n := range g.Nodes {
				resolved := graph.ResolveInputs(n.ID, g)
				inputs := fmt.Sprintf("%d image(s)", len(resolved.Images))
				if resolved.Prompt != "" {
					inputs += ", prompt"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", n.ID, n.Kind, inputs)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Printf("\n%d nodes, %d edges, %d generator(s)\n",
				len(g.Nodes), len(g.Edges), len(g.GeneratorIDs()))
			return nil
		},
	}
}
