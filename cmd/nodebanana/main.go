package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nodebanana-ai/nodebanana/pkg/config"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "nodebanana",
		Short:   "nodebanana — generation cache and re-execution engine for node workflows",
		Version: version,
	}

	root.AddCommand(
		newRunCmd(),
		newInspectCmd(),
		newCacheCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

const defaultConfigPath = "nodebanana.yaml"

// loadConfig reads the config file, falling back to built-in defaults
// when the default path does not exist. An explicitly given path must
// exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if path == defaultConfigPath && errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}
