package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// Flags holds the global flags that precede a command.
type Flags struct {
	Network string
	DataDir string
	Config  string

	LogLevel string
	LogFile  string
	LogJSON  bool

	// Args is the command and its arguments.
	Args []string

	// SetLogJSON records an explicit --log-json so false can override the file.
	SetLogJSON bool
}

// ErrHelp is returned by ParseFlags when -h or --help was given.
var ErrHelp = flag.ErrHelp

// ParseFlags parses global flags from args. Parsing stops at the first
// non-flag argument, which starts the command.
func ParseFlags(args []string, usage func()) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("mintgate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = usage

	fs.StringVar(&f.Network, "network", "", "mainnet or testnet")
	fs.BoolFunc("testnet", "same as --network=testnet", func(string) error {
		f.Network = string(Testnet)
		return nil
	})
	fs.StringVar(&f.DataDir, "datadir", "", "data directory")
	fs.StringVar(&f.Config, "config", "", "config file (default <datadir>/mintgate.conf)")
	fs.StringVar(&f.LogLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&f.LogFile, "log-file", "", "also write JSON logs to this file")
	fs.BoolVar(&f.LogJSON, "log-json", false, "write logs to stderr as JSON")

	err := fs.Parse(args)
	switch {
	case errors.Is(err, flag.ErrHelp):
		return nil, ErrHelp
	case err != nil:
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == "log-json" {
			f.SetLogJSON = true
		}
	})
	f.Args = fs.Args()
	return f, nil
}

// ApplyFlags overrides cfg with every flag that was given.
func ApplyFlags(cfg *Config, f *Flags) {
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	if f.Network != "" {
		cfg.Network = NetworkType(strings.ToLower(f.Network))
	}
	override(&cfg.DataDir, f.DataDir)
	override(&cfg.Log.Level, f.LogLevel)
	override(&cfg.Log.File, f.LogFile)
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

// Load builds the configuration. Later sources win:
//
//	defaults < config file < flags
//
// The data directories and a default config file are created on first use.
func Load(flags *Flags) (*Config, error) {
	network := Mainnet
	if NetworkType(strings.ToLower(flags.Network)) == Testnet {
		network = Testnet
	}
	cfg := Default(network)
	ApplyFlags(cfg, &Flags{DataDir: flags.DataDir})

	path := flags.Config
	if path == "" {
		if err := EnsureDataDirs(cfg); err != nil {
			return nil, err
		}
		path = cfg.ConfigFile()
	}
	values, err := LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, values); err != nil {
		return nil, fmt.Errorf("apply config file: %w", err)
	}

	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, EnsureDataDirs(cfg)
}

// EnsureDataDirs creates the directory layout for cfg and writes a default
// config file when none exists. It is idempotent.
func EnsureDataDirs(cfg *Config) error {
	dirs := []struct {
		path string
		perm os.FileMode
	}{
		{cfg.DataDir, 0755},
		{cfg.NetworkDir(), 0755},
		{cfg.StateDir(), 0755},
		{cfg.KeystoreDir(), 0700},
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d.path, d.perm); err != nil {
			return fmt.Errorf("create directory %s: %w", d.path, err)
		}
	}

	path := cfg.ConfigFile()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}
	if err := WriteDefaultConfig(path, cfg.Network); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
