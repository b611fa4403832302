package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/livingwales/areaselect/internal/config"
)

var cfg *config.Config

var (
	outputFormat string
	rootOverride string
	uploadsDir   string
)

var rootCmd = &cobra.Command{
	Use:   "areaselect",
	Short: "Select areas of Wales for land cover analysis",
	Long:  "Lists the shapefile dataset groups, resolves polygon or drawn area selections, applies buffers, and serves interactive selection sessions over HTTP.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if rootOverride != "" {
			c.Catalog.Root = rootOverride
		}
		if uploadsDir != "" {
			c.Catalog.UploadsDir = uploadsDir
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "o", formatTable, "output format: table, json or yaml")
	rootCmd.PersistentFlags().StringVar(&rootOverride, "root", "", "dataset groups folder (default from config)")
	rootCmd.PersistentFlags().StringVar(&uploadsDir, "uploads", "", "user uploads folder (default from config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
