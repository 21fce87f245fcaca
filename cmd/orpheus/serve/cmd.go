package serve

import (
	"sync"
	"time"

	"github.com/quavera/orpheus/accounts"
	"github.com/quavera/orpheus/auth"
	"github.com/quavera/orpheus/auth/api"
	"github.com/quavera/orpheus/internal/cmdflags"
	"github.com/quavera/orpheus/internal/config"
	"github.com/quavera/orpheus/internal/httpserver"
	"github.com/quavera/orpheus/internal/logutil"
	"github.com/urfave/cli/v2"
)

// how often expired sessions are swept out of the table
const pruneInterval = time.Minute

func Cmd() *cli.Command {
	var bindAddr string
	var dataPath string
	var configFile string
	var saveInterval string
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the orpheus backend",
		Flags: []cli.Flag{
			cmdflags.Bind(&bindAddr),
			cmdflags.Data(&dataPath),
			cmdflags.Config(&configFile),
			&cli.StringFlag{
				Name:        "save-interval",
				Usage:       "How often the account snapshot is flushed when dirty",
				Destination: &saveInterval,
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg := config.Default()
			if configFile != "" {
				var err error
				cfg, err = config.LoadFile(configFile)
				if err != nil {
					return err
				}
			}
			if bindAddr != "" {
				cfg.Server.Bind = bindAddr
			}
			if dataPath != "" {
				cfg.Server.DataPath = dataPath
			}
			if saveInterval != "" {
				cfg.Server.SaveInterval = saveInterval
			}
			interval, err := cfg.Server.SaveIntervalDuration()
			if err != nil {
				return err
			}

			store, err := accounts.Open(cfg.Server.DataPath)
			if err != nil {
				return err
			}
			sessions := auth.NewSessionTable()
			service := auth.NewService(store, sessions)

			var background sync.WaitGroup
			background.Add(2)
			go func() {
				defer background.Done()
				store.RunSaver(logutil.WithComponent(ctx.Context, "saver"), interval)
			}()
			go func() {
				defer background.Done()
				sessions.RunPruner(logutil.WithComponent(ctx.Context, "pruner"), pruneInterval)
			}()

			serveErr := httpserver.Serve(ctx.Context, cfg.Server.Bind, api.AsHandler(service))
			background.Wait()
			// requests that landed between the shutdown signal and
			// the drain may have dirtied the store after the saver's
			// final flush; Save is idempotent so flushing again is safe
			if err := store.Save(); err != nil {
				logger := logutil.GetOrDefault(ctx.Context)
				logger.Error().Err(err).Msg("Final account flush failed")
				if serveErr == nil {
					return err
				}
			}
			return serveErr
		},
	}
}
