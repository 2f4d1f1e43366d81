package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/menta2k/image-labeler/internal/logger"
	"github.com/menta2k/image-labeler/internal/utils"
	"github.com/menta2k/image-labeler/pkg/scanner"
)

func newScanCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <folder>",
		Short: "List the images of a folder that still need annotating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}

			folder := args[0]
			sc := scanner.NewWithFormats(cfg.Scanner.Formats)
			pending, err := sc.Scan(folder, cfg.ImagesPath())
			if err != nil {
				return err
			}
			logger.S().Debugw("scan finished",
				"folder", folder,
				"store", cfg.ImagesPath(),
				"formats", sc.Formats(),
				"pending", len(pending),
			)

			out := cmd.OutOrStdout()
			var total int64
			for _, name := range pending {
				size := int64(0)
				if fi, err := os.Stat(filepath.Join(folder, name)); err == nil {
					size = fi.Size()
				}
				total += size
				fmt.Fprintf(out, "%-40s %10s\n", name, utils.FormatFileSize(size))
			}
			fmt.Fprintf(out, "%d new image(s), %s, store %s\n", len(pending), utils.FormatFileSize(total), cfg.ImagesPath())
			return nil
		},
	}
}
