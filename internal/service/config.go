package service

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pagefreeze/snap"
)

const (
	defaultOutputDir = "snapshots"
	defaultSitesDir  = "config/sites"
)

// Config describes service wiring and capture defaults.
type Config struct {
	Addr           string
	OutputDir      string
	SitesDir       string
	DefaultOptions snap.Options
	Logger         *log.Logger
	Clock          func() time.Time
}

// DefaultConfig populates configuration from environment variables.
func DefaultConfig() Config {
	cfg := Config{
		Addr:      ":8080",
		OutputDir: strings.TrimSpace(os.Getenv("PAGEFREEZE_OUT")),
		SitesDir:  strings.TrimSpace(os.Getenv("PAGEFREEZE_SITES_DIR")),
		DefaultOptions: snap.Options{
			RemoveScripts:        true,
			RemoveOriginalStyles: true,
		},
		Logger: log.Default(),
		Clock:  time.Now,
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaultOutputDir
	}
	if cfg.SitesDir == "" {
		cfg.SitesDir = defaultSitesDir
	}
	if v := strings.TrimSpace(os.Getenv("PAGEFREEZE_ADDR")); v != "" {
		cfg.Addr = v
	}
	if envBool("PAGEFREEZE_KEEP_SCRIPTS") {
		cfg.DefaultOptions.RemoveScripts = false
	}
	if envBool("PAGEFREEZE_USE_RELAY") {
		cfg.DefaultOptions.UseRelay = true
	}
	if envBool("PAGEFREEZE_ADD_POLICY") {
		cfg.DefaultOptions.AddPolicy = true
	}
	return cfg
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// fileConfig is the YAML shape of an optional config file. Set fields
// override what DefaultConfig derived from the environment.
type fileConfig struct {
	Addr      string `yaml:"addr"`
	OutputDir string `yaml:"output_dir"`
	SitesDir  string `yaml:"sites_dir"`
	Defaults  struct {
		RemoveScripts        *bool `yaml:"remove_scripts"`
		RemoveOriginalStyles *bool `yaml:"remove_original_styles"`
		UseRelay             *bool `yaml:"use_relay"`
		AddPolicy            *bool `yaml:"add_policy"`
	} `yaml:"defaults"`
}

// LoadConfigFile overlays a YAML config file onto cfg.
func LoadConfigFile(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if fc.Addr != "" {
		cfg.Addr = fc.Addr
	}
	if fc.OutputDir != "" {
		cfg.OutputDir = fc.OutputDir
	}
	if fc.SitesDir != "" {
		cfg.SitesDir = fc.SitesDir
	}
	if v := fc.Defaults.RemoveScripts; v != nil {
		cfg.DefaultOptions.RemoveScripts = *v
	}
	if v := fc.Defaults.RemoveOriginalStyles; v != nil {
		cfg.DefaultOptions.RemoveOriginalStyles = *v
	}
	if v := fc.Defaults.UseRelay; v != nil {
		cfg.DefaultOptions.UseRelay = *v
	}
	if v := fc.Defaults.AddPolicy; v != nil {
		cfg.DefaultOptions.AddPolicy = *v
	}
	return cfg, nil
}
