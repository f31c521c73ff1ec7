package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the verdict configuration.
type Config struct {
	Agents                []string      `yaml:"agents"`
	Format                string        `yaml:"format"`
	FailOn                string        `yaml:"failOn"`
	MinConsensusThreshold float64       `yaml:"minConsensusThreshold"`
	IncludeSingleSource   *bool         `yaml:"includeSingleSource,omitempty"`
	MaxFindings           int           `yaml:"maxFindings"`
	MaxFileBytes          int           `yaml:"maxFileBytes"`
	Exclude               []string      `yaml:"exclude"`
	Privacy               PrivacyConfig `yaml:"privacy"`
}

// PrivacyConfig controls redaction of file payloads sent to agents.
type PrivacyConfig struct {
	RedactSecrets *bool    `yaml:"redactSecrets,omitempty"`
	RedactPaths   []string `yaml:"redactPaths,omitempty"`
}

// RedactSecretsEnabled resolves the tri-state flag with its default.
func (p PrivacyConfig) RedactSecretsEnabled() bool {
	if p.RedactSecrets == nil {
		return true
	}
	return *p.RedactSecrets
}

// IncludeSingleSourceFindings resolves the tri-state flag with its default.
func (c Config) IncludeSingleSourceFindings() bool {
	if c.IncludeSingleSource == nil {
		return true
	}
	return *c.IncludeSingleSource
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Agents: []string{
			"claude:claude-sonnet-4-6",
			"codex:gpt-5.2-codex",
		},
		Format:                "text",
		FailOn:                "none",
		MinConsensusThreshold: 0.3,
		MaxFindings:           50,
		MaxFileBytes:          200000,
		Exclude:               []string{"vendor/**", "**/*.gen.go", "**/dist/**"},
		Privacy: PrivacyConfig{
			RedactPaths: []string{"**/.env", "**/*secrets*"},
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for verdict.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "verdict"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "verdict"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "verdict"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "verdict"), nil
	default:
		return filepath.Join(home, ".config", "verdict"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadFile loads config from the config file. Returns zero Config and nil
// error if the file doesn't exist.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <-
// overrides. The overrides map comes from CLI flags (only set values).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	fileCfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	mergeEnv(&cfg)
	mergeOverrides(&cfg, overrides)

	return cfg, nil
}

func mergeFile(dst *Config, src Config) {
	if len(src.Agents) > 0 {
		dst.Agents = src.Agents
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.FailOn != "" {
		dst.FailOn = src.FailOn
	}
	if src.MinConsensusThreshold > 0 {
		dst.MinConsensusThreshold = src.MinConsensusThreshold
	}
	if src.IncludeSingleSource != nil {
		dst.IncludeSingleSource = src.IncludeSingleSource
	}
	if src.MaxFindings > 0 {
		dst.MaxFindings = src.MaxFindings
	}
	if src.MaxFileBytes > 0 {
		dst.MaxFileBytes = src.MaxFileBytes
	}
	if len(src.Exclude) > 0 {
		dst.Exclude = src.Exclude
	}
	if src.Privacy.RedactSecrets != nil {
		dst.Privacy.RedactSecrets = src.Privacy.RedactSecrets
	}
	if len(src.Privacy.RedactPaths) > 0 {
		dst.Privacy.RedactPaths = src.Privacy.RedactPaths
	}
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("VERDICT_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("VERDICT_FAIL_ON"); v != "" {
		cfg.FailOn = v
	}
	if v := os.Getenv("VERDICT_MIN_CONSENSUS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.MinConsensusThreshold = f
		}
	}
	if v := os.Getenv("VERDICT_MAX_FINDINGS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxFindings = n
		}
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) {
	if overrides == nil {
		return
	}
	if v, ok := overrides["format"]; ok && v != "" {
		cfg.Format = v
	}
	if v, ok := overrides["failOn"]; ok && v != "" {
		cfg.FailOn = v
	}
	if v, ok := overrides["minConsensus"]; ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.MinConsensusThreshold = f
		}
	}
	if v, ok := overrides["singleSource"]; ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.IncludeSingleSource = &b
		}
	}
	if v, ok := overrides["maxFindings"]; ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxFindings = n
		}
	}
	if v, ok := overrides["maxFileBytes"]; ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxFileBytes = n
		}
	}
}

// SetField sets a single config field by key name. Returns error if key is
// unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "format":
		cfg.Format = value
	case "failOn":
		cfg.FailOn = value
	case "minConsensusThreshold":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("minConsensusThreshold must be a float: %w", err)
		}
		cfg.MinConsensusThreshold = f
	case "includeSingleSource":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("includeSingleSource must be a bool: %w", err)
		}
		cfg.IncludeSingleSource = &b
	case "maxFindings":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("maxFindings must be an integer: %w", err)
		}
		cfg.MaxFindings = n
	case "maxFileBytes":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("maxFileBytes must be an integer: %w", err)
		}
		cfg.MaxFileBytes = n
	case "redactSecrets":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("redactSecrets must be a bool: %w", err)
		}
		cfg.Privacy.RedactSecrets = &b
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
