package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/quantdev/donchian/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print or write the default configuration",
	RunE:  runConfig,
}

var configOutPath string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().StringVarP(&configOutPath, "out", "o", "", "write to file instead of stdout")
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configOutPath != "" {
		return cfg.SaveToFile(configOutPath)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}
