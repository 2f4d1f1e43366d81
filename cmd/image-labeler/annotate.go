package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	imagelabeler "github.com/menta2k/image-labeler"
	"github.com/menta2k/image-labeler/internal/logger"
	"github.com/menta2k/image-labeler/internal/tui"
	"github.com/menta2k/image-labeler/pkg/annotator"
)

func newAnnotateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "annotate <folder>",
		Short: "Annotate the new images of a folder in the terminal",
		Long: `Opens an interactive terminal session over the images in <folder> that
are not yet in the dataset store. Drag with the mouse to draw a box, type
the class name and press enter to save it.`,
		Example: `  # Annotate ./photos into ./Dataset
  image-labeler annotate photos

  # Use another dataset root
  image-labeler annotate photos --root /data/pets`,
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

			// the TUI owns the terminal
			logger.Set(zap.NewNop())

			notes := &annotator.Recorder{}
			labeler, err := imagelabeler.NewWithConfig(ac,
				annotator.WithNotifier(notes),
				annotator.WithLogger(logger.Log()),
			)
			if err != nil {
				return err
			}
			// a failed scan is shown in the status line
			_ = labeler.Open(args[0])

			ctl := labeler.Controller()
			p := tea.NewProgram(
				tui.New(cmd.Context(), ctl, notes),
				tea.WithAltScreen(),
				tea.WithMouseCellMotion(),
				tea.WithContext(cmd.Context()),
			)
			_, err = p.Run()
			return err
		},
	}
}
