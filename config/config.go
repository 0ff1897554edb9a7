// Package config loads daemon configuration from environment variables
// (per spec.md §6.3) with an optional TOML file for non-secret settings,
// following the teacher's urfave/cli-driven configuration style.
package config

import (
	"os"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml"
)

// Config is the daemon's resolved configuration.
type Config struct {
	ListenAddr     string `mapstructure:"listen_addr"`
	DefaultFuel    uint64 `mapstructure:"default_fuel"`
	BucketSizeFile string `mapstructure:"bucket_size_file"`

	ZephyrDBHost string
	ZephyrDBName string
	ZephyrDBUser string
	ZephyrDBPwd  string

	IngestorDB string
	Network    string
	Local      bool
}

// DefaultBucketSizeFile is the ambient file path consulted by the
// embedded-host bridge's transaction-simulation call (spec.md §6.3) when
// no explicit path is configured.
const DefaultBucketSizeFile = "/tmp/currentbucketsize"

// Defaults returns a Config with the documented fallbacks applied.
func Defaults() Config {
	return Config{
		ListenAddr:     ":8080",
		DefaultFuel:    1_000_000_000,
		BucketSizeFile: DefaultBucketSizeFile,
	}
}

// Load reads environment variables (spec.md §6.3) and, if present, a TOML
// file at tomlPath for the non-secret settings not carried by environment
// variables (listen address, default fuel, bucket-size file path).
func Load(tomlPath string) (Config, error) {
	cfg := Defaults()

	if tomlPath != "" {
		if _, err := os.Stat(tomlPath); err == nil {
			tree, err := toml.LoadFile(tomlPath)
			if err != nil {
				return cfg, err
			}
			var generic map[string]interface{}
			_ = tree.Unmarshal(&generic)
			if err := mapstructure.Decode(generic, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	cfg.ZephyrDBHost = os.Getenv("ZEPHYRDB_HOST")
	cfg.ZephyrDBName = os.Getenv("ZEPHYRDB_NAME")
	cfg.ZephyrDBUser = os.Getenv("ZEPHYRDB_USER")
	cfg.ZephyrDBPwd = os.Getenv("ZEPHYRDB_PWD")
	cfg.IngestorDB = os.Getenv("INGESTOR_DB")
	cfg.Network = os.Getenv("NETWORK")
	cfg.Local, _ = strconv.ParseBool(os.Getenv("LOCAL"))

	return cfg, nil
}

// ReadBucketSize reads the ambient /tmp/currentbucketsize file consulted
// by the embedded-host bridge's transaction-simulation call (spec.md
// §6.3), returning fallback if the file is absent or malformed: the
// original treats a missing file as a soft condition, not an error.
func ReadBucketSize(path string, fallback uint64) uint64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return fallback
	}
	v, err := strconv.ParseUint(string(trimNewline(data)), 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
