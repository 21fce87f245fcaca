// Package config loads the optional orpheus.lua configuration file.
// Configuration is primarily driven by cli flags; the file exists for
// installs that prefer to keep everything in one place.
package config

import (
	"fmt"
	"time"

	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"
)

type (
	Config struct {
		Server Server
	}

	Server struct {
		// Address the HTTP server binds to
		Bind string
		// Path of the account snapshot file
		DataPath string
		// How often the background saver checks the dirty flag,
		// as a time.ParseDuration string
		SaveInterval string
	}
)

// Default returns the configuration used when no file and no flags
// are given.
func Default() Config {
	return Config{
		Server: Server{
			Bind:         "0.0.0.0:31078",
			DataPath:     "orpheus-accounts.db",
			SaveInterval: "1s",
		},
	}
}

// LoadFile evaluates a lua config file and maps its `server` table
// over the defaults. A typical file looks like:
//
//	server = {
//	    bind = "127.0.0.1:31078",
//	    data_path = "/var/lib/orpheus/accounts.db",
//	    save_interval = "1s",
//	}
func LoadFile(path string) (Config, error) {
	cfg := Default()
	state := lua.NewState()
	defer state.Close()
	if err := state.DoFile(path); err != nil {
		return cfg, fmt.Errorf("unable to evaluate config file %v, cause %w", path, err)
	}
	tbl, ok := state.GetGlobal("server").(*lua.LTable)
	if !ok {
		return cfg, fmt.Errorf("config file %v does not declare a server table", path)
	}
	if err := gluamapper.Map(tbl, &cfg.Server); err != nil {
		return cfg, fmt.Errorf("unable to map server table from %v, cause %w", path, err)
	}
	return cfg, nil
}

// SaveIntervalDuration parses the saver interval and rejects values
// that would disable the background flush.
func (s Server) SaveIntervalDuration() (time.Duration, error) {
	d, err := time.ParseDuration(s.SaveInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid save_interval %q, cause %w", s.SaveInterval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("save_interval must be positive, got %v", d)
	}
	return d, nil
}
