package config

import "fmt"

// Validate checks the config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("datadir is empty")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn, or error")
	}
	if cfg.Keys.ArgonIterations == 0 {
		return fmt.Errorf("keys.argon_iterations must be at least 1")
	}
	if cfg.Keys.ArgonParallelism == 0 {
		return fmt.Errorf("keys.argon_parallelism must be at least 1")
	}
	// Argon2 needs at least 8 KiB per lane.
	if cfg.Keys.ArgonMemory < 8*uint32(cfg.Keys.ArgonParallelism) {
		return fmt.Errorf("keys.argon_memory must be at least %d KiB", 8*uint32(cfg.Keys.ArgonParallelism))
	}
	return nil
}
