// Package config handles mintgate configuration.
//
// Settings come from built-in defaults, then <datadir>/mintgate.conf,
// then command-line flags, in increasing precedence.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType selects an isolated state directory.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Config holds runtime configuration.
type Config struct {
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Keys
	Keys KeysConfig

	// Logging
	Log LogConfig
}

// KeysConfig holds the Argon2id costs for newly stored keys. Existing
// key files keep the costs they were written with.
type KeysConfig struct {
	ArgonMemory      uint32 `conf:"keys.argon_memory"` // KiB
	ArgonIterations  uint32 `conf:"keys.argon_iterations"`
	ArgonParallelism uint8  `conf:"keys.argon_parallelism"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.mintgate
//	macOS:   ~/Library/Application Support/Mintgate
//	Windows: %APPDATA%\Mintgate
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mintgate"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Mintgate")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Mintgate")
		}
		return filepath.Join(home, "AppData", "Roaming", "Mintgate")
	default:
		return filepath.Join(home, ".mintgate")
	}
}

// NetworkDir returns the network-specific data directory.
func (c *Config) NetworkDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// StateDir returns the program state database directory.
func (c *Config) StateDir() string {
	return filepath.Join(c.NetworkDir(), "state")
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.NetworkDir(), "keystore")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "mintgate.conf")
}
