package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	imagelabeler "github.com/menta2k/image-labeler"
	"github.com/menta2k/image-labeler/internal/logger"
	"github.com/menta2k/image-labeler/pkg/annotator"
	"github.com/menta2k/image-labeler/pkg/label"
)

func newPreviewCmd(g *globals) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "preview <image>",
		Short: "Render the stored boxes of an annotated image",
		Long: `Draws every box stored for <image> on its copy in the dataset store and
writes the result, e.g. to check a label file by eye.`,
		Example: `  image-labeler preview cat.jpg
  image-labeler preview cat.jpg -o /tmp/cat_boxes.webp`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			ac, err := cfg.Annotator()
			if err != nil {
				return err
			}

			labeler, err := imagelabeler.NewWithConfig(ac, annotator.WithLogger(logger.Log()))
			if err != nil {
				return err
			}

			name := filepath.Base(args[0])
			if out == "" {
				out = strings.TrimSuffix(name, filepath.Ext(name)) + "_preview.png"
			}
			boxes, err := labeler.SavePreview(name, out)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, b := range boxes {
				fmt.Fprint(w, label.Format(b))
			}
			fmt.Fprintf(w, "%d box(es) drawn to %s\n", len(boxes), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "output file, format by extension (default <image>_preview.png)")

	return cmd
}
