package main

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	imagelabeler "github.com/menta2k/image-labeler"
	"github.com/menta2k/image-labeler/internal/logger"
	"github.com/menta2k/image-labeler/internal/server"
	"github.com/menta2k/image-labeler/pkg/annotator"
)

func newServeCmd(g *globals) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [folder]",
		Short: "Serve the annotation session over a JSON API",
		Long: `Starts an HTTP API driving one annotation session. A browser canvas can
open a folder, page through its new images, fetch the active image and
post rectangles with their class names.`,
		Example: `  # Serve on the configured address and open ./photos
  image-labeler serve photos

  # Serve on a custom address
  image-labeler serve --addr :3000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ac, err := cfg.Annotator()
			if err != nil {
				return err
			}

			log := logger.Log()
			notes := &annotator.Recorder{}
			labeler, err := imagelabeler.NewWithConfig(ac,
				annotator.WithNotifier(notes),
				annotator.WithLogger(log),
			)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if err := labeler.Open(args[0]); err != nil {
					return err
				}
				notes.Drain()
			}

			srv := server.New(labeler.Controller(), notes, server.WithLogger(log))
			err = srv.Run(cmd.Context(), cfg.Server.Addr)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("server failed", zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address, overrides server.addr")

	return cmd
}
