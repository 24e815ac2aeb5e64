package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/koustreak/erdview/internal/catalog"
	"github.com/koustreak/erdview/internal/layout"
	"github.com/koustreak/erdview/internal/schema"
)

// EnvPrefix marks the environment variables read by Load. A double
// underscore separates nesting levels: ERDVIEW_CATALOG__QUERY_TIMEOUT sets
// catalog.query_timeout.
const EnvPrefix = "ERDVIEW_"

// defaultFiles are tried in order when no file is named.
var defaultFiles = []string{"erdview.yaml", "erdview.yml"}

// FlagKeys maps command-line flag names to config keys. Flags not listed
// here are ignored by Load.
var FlagKeys = map[string]string{
	"host":            "connection.host",
	"port":            "connection.port",
	"user":            "connection.username",
	"password":        "connection.password",
	"database":        "connection.database",
	"tls-mode":        "connection.tls_mode",
	"driver":          "catalog.driver",
	"connect-timeout": "catalog.connect_timeout",
	"query-timeout":   "catalog.query_timeout",
	"concurrency":     "catalog.concurrency",
	"direction":       "layout.direction",
	"log-level":       "log.level",
	"log-format":      "log.format",
	"addr":            "server.addr",
}

func defaults() map[string]interface{} {
	cat := catalog.DefaultConfig()
	lay := layout.DefaultOptions()
	return map[string]interface{}{
		"catalog.driver":                 string(cat.Driver),
		"catalog.connect_timeout":        cat.ConnectTimeout,
		"catalog.query_timeout":          cat.QueryTimeout,
		"catalog.max_conns":              cat.MaxConns,
		"catalog.max_reconnect_attempts": cat.MaxReconnectAttempts,
		"catalog.health_check_interval":  cat.HealthCheckInterval,
		"catalog.concurrency":            schema.DefaultConcurrency,

		"layout.direction":   string(lay.Direction),
		"layout.node_width":  lay.NodeWidth,
		"layout.node_height": lay.NodeHeight,
		"layout.node_sep":    lay.NodeSep,
		"layout.rank_sep":    lay.RankSep,
		"layout.margin":      lay.Margin,
		"layout.iterations":  lay.Iterations,

		"log.level":       "info",
		"log.format":      "console",
		"log.time_format": "rfc3339",

		"server.addr": "127.0.0.1:8080",

		"export.provider": "minio",
		"export.bucket":   "erdview",
	}
}

// Load builds the configuration. path names a YAML file; when empty,
// erdview.yaml or erdview.yml in the working directory is used if present.
// flags may be nil; only flags that were set override other sources.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := FlagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey turns ERDVIEW_CATALOG__QUERY_TIMEOUT into catalog.query_timeout.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func findFile() string {
	for _, name := range defaultFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}
