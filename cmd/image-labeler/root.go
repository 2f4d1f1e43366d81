package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/menta2k/image-labeler/internal/config"
	"github.com/menta2k/image-labeler/internal/logger"
)

// globals holds the persistent flags shared by every command
type globals struct {
	configPath string
	root       string
	logLevel   string
	dev        bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   "image-labeler",
		Short: "Draw bounding boxes on images and build an object-detection dataset",
		Long: `image-labeler walks a folder of images that are not yet in the dataset
store, lets you draw a rectangle and name its class, and appends the box to
<root>/Labels/<image>.txt in normalized center format while copying the
image into <root>/Images.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "config file (default "+config.GetConfigPath()+")")
	pf.StringVar(&g.root, "root", "", "dataset store root, overrides dataset.root")
	pf.StringVar(&g.logLevel, "log-level", "", "log level, overrides log.level")
	pf.BoolVar(&g.dev, "dev", false, "human readable development logging")

	cmd.AddCommand(newAnnotateCmd(g))
	cmd.AddCommand(newServeCmd(g))
	cmd.AddCommand(newScanCmd(g))
	cmd.AddCommand(newPreviewCmd(g))
	cmd.AddCommand(newConfigCmd(g))

	return cmd
}

// load reads and validates the configuration, applies flag overrides and
// installs the logger
func (g *globals) load() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.root != "" {
		cfg.Dataset.Root = g.root
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.dev {
		cfg.Log.Development = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logger.Init(cfg.Log.Development, cfg.Log.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}
