package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Load parses and validates the TOML document at path, returning a Config
// ready to compile or an error describing the first validation failure.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes raw TOML bytes into a Config and validates it. Unknown
// fields in the document are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config: unknown field %q", undecoded[0].String())
	}
	cfg.AdvancedSettings = cfg.AdvancedSettings.Defaults()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
