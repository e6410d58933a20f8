package main

import (
	"os"

	"clustering-api/internal/config"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	cfg       *config.Config
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "importer",
	Short: "Address cache maintenance",
	Long:  "Applies schema migrations and seeds the address cache from pre-geocoded CSV files.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadConfig(configDir)
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "configs", "directory containing config.yaml")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
