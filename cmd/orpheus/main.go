package main

import (
	"context"
	"os"
	"os/signal"

	accountscmd "github.com/quavera/orpheus/cmd/orpheus/accounts"
	"github.com/quavera/orpheus/cmd/orpheus/serve"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "orpheus",
		Usage: "The music server backend that keeps your listeners logged in",
		Commands: []*cli.Command{
			serve.Cmd(),
			accountscmd.Cmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
	}
}
