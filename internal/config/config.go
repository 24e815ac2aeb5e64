// Package config loads erdview settings from defaults, an optional YAML file,
// ERDVIEW_ environment variables and command-line flags, in that order of
// increasing precedence.
package config

import (
	"github.com/koustreak/erdview/internal/catalog"
	"github.com/koustreak/erdview/internal/errs"
	"github.com/koustreak/erdview/internal/filestore"
	"github.com/koustreak/erdview/internal/layout"
	"github.com/koustreak/erdview/internal/logger"
)

// Config is the complete erdview configuration.
type Config struct {
	// Connection is the database to introspect. It may be left empty and
	// supplied later through the HTTP API.
	Connection catalog.Descriptor `koanf:"connection"`
	Catalog    CatalogConfig      `koanf:"catalog"`
	Layout     layout.Options     `koanf:"layout"`
	Log        logger.Config      `koanf:"log"`
	Server     ServerConfig       `koanf:"server"`
	Export     filestore.Config   `koanf:"export"`
}

// CatalogConfig extends the client settings with the assembler's fan-out.
type CatalogConfig struct {
	catalog.Config `koanf:",squash"`

	// Concurrency bounds how many tables are introspected at once.
	Concurrency int `koanf:"concurrency"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// HasConnection reports whether a database was configured.
func (c *Config) HasConnection() bool {
	return c.Connection.Host != "" && c.Connection.Database != ""
}

// Validate checks every section. The connection is only checked when one
// was given.
func (c *Config) Validate() error {
	if c.HasConnection() {
		if err := c.Connection.Validate(); err != nil {
			return err
		}
	}
	if err := c.Catalog.Config.Validate(); err != nil {
		return err
	}
	if c.Catalog.Concurrency < 1 {
		return errs.New(errs.ErrKindInvalidInput, "catalog concurrency must be at least 1")
	}
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "unknown log format %q", c.Log.Format)
	}
	if c.Server.Addr == "" {
		return errs.New(errs.ErrKindInvalidInput, "server address is required")
	}
	return c.Export.Validate()
}
