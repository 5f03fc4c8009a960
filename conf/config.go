// Package conf loads the command-line tool's runtime configuration from an
// INI file, the way the teacher's server configuration is loaded.
package conf

import (
	"os"
	"path/filepath"

	"github.com/DenMMM/db-1cd/logger"
	"gopkg.in/ini.v1"
)

// CommandLineArgs carries the flags accepted by the dump tool.
type CommandLineArgs struct {
	ConfigPath string
}

// Cfg is the resolved configuration of the onecd-dump tool.
type Cfg struct {
	Raw *ini.File

	// CacheSize is the number of resident pages kept by the page cache.
	CacheSize int `default:"8" yaml:"cache_size" json:"cache_size,omitempty"`

	LogLevel string `default:"info" yaml:"log_level" json:"log_level,omitempty"`
	LogError string `default:"" yaml:"log_error" json:"log_error,omitempty"`
	LogInfo  string `default:"" yaml:"log_info" json:"log_info,omitempty"`
}

// NewCfg returns the built-in defaults, used when no config file is given.
func NewCfg() *Cfg {
	return &Cfg{
		Raw:       ini.Empty(),
		CacheSize: 8,
		LogLevel:  "info",
	}
}

// Load reads an INI file (if args.ConfigPath is set) and overlays its
// "onecd" section onto the defaults. A missing file is not an error: the
// defaults are used as-is, matching how the dump tool behaves without -c.
func (cfg *Cfg) Load(args *CommandLineArgs) (*Cfg, error) {
	if args == nil || args.ConfigPath == "" {
		return cfg, nil
	}

	path, err := filepath.Abs(args.ConfigPath)
	if err != nil {
		return cfg, err
	}

	if _, statErr := os.Stat(path); statErr != nil {
		logger.Debugf("config file %q not found, using defaults", path)
		return cfg, nil
	}

	raw, err := ini.Load(path)
	if err != nil {
		return cfg, err
	}
	cfg.Raw = raw

	section := raw.Section("onecd")

	cfg.CacheSize = section.Key("cache_size").MustInt(cfg.CacheSize)
	cfg.LogLevel = section.Key("log_level").MustString(cfg.LogLevel)
	cfg.LogError = section.Key("log_error").MustString(cfg.LogError)
	cfg.LogInfo = section.Key("log_info").MustString(cfg.LogInfo)

	return cfg, nil
}
