package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hioa-sim/hioa-sim/sim/equipment/house"
)

// loadConfig reads an equipment configuration file over the defaults.
// Keys absent from the file keep their default value. Uses strict field
// checking so typos are errors.
func loadConfig(path string) (house.Config, error) {
	cfg := house.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading equipment config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && err != io.EOF {
		return cfg, fmt.Errorf("parsing equipment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// writeDefaultConfig writes the defaults as YAML, a starting point for --config.
func writeDefaultConfig(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(house.DefaultConfig()); err != nil {
		return err
	}
	return enc.Close()
}

var defaultConfigCmd = &cobra.Command{
	Use:   "default-config",
	Short: "Print the default equipment configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeDefaultConfig(cmd.OutOrStdout())
	},
}
