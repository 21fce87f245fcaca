package accounts

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/quavera/orpheus/accounts"
	"github.com/quavera/orpheus/internal/cmdflags"
	"github.com/quavera/orpheus/internal/config"
	"github.com/urfave/cli/v2"
)

// Cmd manages the account snapshot without a running server. The
// create-account endpoint needs an admin session, so the very first
// admin has to come from here.
func Cmd() *cli.Command {
	var dataPath string
	return &cli.Command{
		Name:  "accounts",
		Usage: "Manage the account snapshot directly, without a running server",
		Flags: []cli.Flag{
			cmdflags.Data(&dataPath),
		},
		Before: func(ctx *cli.Context) error {
			if dataPath == "" {
				dataPath = config.Default().Server.DataPath
			}
			return nil
		},
		Subcommands: []*cli.Command{
			createCmd(&dataPath),
			listCmd(&dataPath),
		},
	}
}

func createCmd(dataPath *string) *cli.Command {
	var username string
	var admin bool
	return &cli.Command{
		Name:  "create",
		Usage: "Register a new account (password is read from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "username",
				Aliases:     []string{"u", "user"},
				Usage:       "Name of the account to register",
				Destination: &username,
				Required:    true,
			},
			&cli.BoolFlag{
				Name:        "admin",
				Usage:       "Allow the account to manage the server",
				Destination: &admin,
			},
		},
		Action: func(ctx *cli.Context) error {
			sc := bufio.NewScanner(os.Stdin)
			if !sc.Scan() {
				return sc.Err()
			}
			password := strings.TrimSpace(sc.Text())
			if len(password) == 0 {
				return errors.New("missing password from stdin")
			}
			store, err := accounts.Open(*dataPath)
			if err != nil {
				return err
			}
			if err := store.Register(username, password, admin); err != nil {
				return err
			}
			return store.Save()
		},
	}
}

func listCmd(dataPath *string) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List registered accounts",
		Action: func(ctx *cli.Context) error {
			store, err := accounts.Open(*dataPath)
			if err != nil {
				return err
			}
			for _, name := range store.Usernames() {
				if record := store.Lookup(name); record != nil && record.Admin {
					fmt.Printf("%v (admin)\n", name)
					continue
				}
				fmt.Println(name)
			}
			return nil
		},
	}
}
