package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	imagelabeler "github.com/menta2k/image-labeler"
)

func main() {
	root := newRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(imagelabeler.Version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
