package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadFile reads a mintgate.conf file into raw key/value pairs. Each line
// is `key = value`; blank lines and lines starting with # are skipped.
// A missing file yields no values.
func LoadFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	values := make(map[string]string)
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%s:%d: expected key = value", path, n)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("%s:%d: empty key", path, n)
		}
		values[key] = unquote(strings.TrimSpace(value))
	}
	return values, sc.Err()
}

// unquote strips one pair of matching single or double quotes.
func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

// setters maps file keys to the Config field they set. Keys not listed
// here are ignored so newer files still load.
var setters = map[string]func(cfg *Config, v string) error{
	"network": func(c *Config, v string) error { c.Network = NetworkType(v); return nil },
	"datadir": func(c *Config, v string) error { c.DataDir = v; return nil },

	"keys.argon_memory":      uintSetter(32, func(c *Config, n uint64) { c.Keys.ArgonMemory = uint32(n) }),
	"keys.argon_iterations":  uintSetter(32, func(c *Config, n uint64) { c.Keys.ArgonIterations = uint32(n) }),
	"keys.argon_parallelism": uintSetter(8, func(c *Config, n uint64) { c.Keys.ArgonParallelism = uint8(n) }),

	"log.level": func(c *Config, v string) error { c.Log.Level = v; return nil },
	"log.file":  func(c *Config, v string) error { c.Log.File = v; return nil },
	"log.json":  func(c *Config, v string) error { c.Log.JSON = parseBool(v); return nil },
}

// uintSetter parses an unsigned value of the given bit size before
// handing it to set.
func uintSetter(bits int, set func(*Config, uint64)) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.ParseUint(v, 10, bits)
		if err != nil {
			return err
		}
		set(c, n)
		return nil
	}
}

// ApplyFileConfig applies values loaded by LoadFile to cfg.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		set, ok := setters[key]
		if !ok {
			continue
		}
		if err := set(cfg, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// WriteDefaultConfig writes a commented configuration file holding the
// defaults for network.
func WriteDefaultConfig(path string, network NetworkType) error {
	d := Default(network)
	var b strings.Builder
	fmt.Fprintf(&b, "# mintgate configuration\n#\n# Flags given on the command line override these values.\n\n")
	fmt.Fprintf(&b, "# mainnet or testnet. Each network keeps its own state and keystore.\n")
	fmt.Fprintf(&b, "network = %s\n\n", d.Network)
	fmt.Fprintf(&b, "# datadir = %s\n\n", d.DataDir)
	fmt.Fprintf(&b, "# Argon2id costs for newly created or imported keys.\n")
	fmt.Fprintf(&b, "keys.argon_memory = %d\n", d.Keys.ArgonMemory)
	fmt.Fprintf(&b, "keys.argon_iterations = %d\n", d.Keys.ArgonIterations)
	fmt.Fprintf(&b, "keys.argon_parallelism = %d\n\n", d.Keys.ArgonParallelism)
	fmt.Fprintf(&b, "log.level = %s\n", d.Log.Level)
	fmt.Fprintf(&b, "# log.file =\n")
	fmt.Fprintf(&b, "log.json = %t\n", d.Log.JSON)
	return os.WriteFile(path, []byte(b.String()), 0644)
}
