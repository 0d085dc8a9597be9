package jbt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/OpenGG/jbtool/internal/jbt/storage"
	"github.com/OpenGG/jbtool/internal/jbt/switcher"
)

// Config is the optional config.yaml in the tool home.
//
//	products:
//	  - androidstudio
//	backups: false
type Config struct {
	// Products are extra product identifiers recognized in config directory names.
	Products []string `yaml:"products,omitempty"`
	// Backups controls the jdk.table.xml backup taken before every save. Defaults to true.
	Backups *bool `yaml:"backups,omitempty"`
}

// BackupsEnabled reports whether table backups are on.
func (c Config) BackupsEnabled() bool {
	return c.Backups == nil || *c.Backups
}

// ProductList returns the built-in products followed by the configured extras,
// lowercased and without duplicates.
func (c Config) ProductList() []string {
	seen := make(map[string]bool, len(switcher.KnownProducts)+len(c.Products))
	var out []string
	for _, list := range [][]string{switcher.KnownProducts, c.Products} {
		for _, p := range list {
			id := strings.ToLower(strings.TrimSpace(p))
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// LoadConfig reads path. A missing file yields the zero Config.
func LoadConfig(stor *storage.Storage, path string) (Config, error) {
	var cfg Config
	data, err := stor.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}
