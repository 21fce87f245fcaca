// Package cmdflags holds the cli flags shared between orpheus
// commands.
package cmdflags

import (
	"github.com/urfave/cli/v2"
)

func Data(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "data",
		Aliases:     []string{"d"},
		Usage:       "Path to the account snapshot file",
		Destination: out,
		Value:       *out,
	}
}

func Bind(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "bind",
		Aliases:     []string{"b"},
		Usage:       "Address to bind the HTTP server to",
		Destination: out,
		Value:       *out,
	}
}

func Config(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to a lua config file (flags win over file values)",
		Destination: out,
		Value:       *out,
	}
}
