package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Vision      Vision      `yaml:"vision"`
	Output      Output      `yaml:"output"`
	Server      Server      `yaml:"server"`
	Leaderboard Leaderboard `yaml:"leaderboard"`
	Logging     Logging     `yaml:"logging"`
}

type Vision struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	OllamaURL   string `yaml:"ollama_url"`
	OpenAIModel string `yaml:"openai_model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_seconds"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Leaderboard struct {
	ActiveVersion string          `yaml:"active_version"`
	Versions      []WeightVersion `yaml:"versions"`
}

type WeightVersion struct {
	ID             string  `yaml:"id"`
	MatchWeight    float64 `yaml:"match_weight"`
	VerifiedWeight float64 `yaml:"verified_weight"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for lynkermatch.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "lynkermatch")
}

// DataDir returns the XDG data directory for lynkermatch.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "lynkermatch")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/lynkermatch/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'lynkermatch init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Vision: Vision{
			Provider:    "ollama",
			Model:       "qwen2.5vl:7b",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			TimeoutSecs: 120,
		},
		Server: Server{Port: 8000},
		Leaderboard: Leaderboard{
			ActiveVersion: "v1",
			Versions: []WeightVersion{
				{ID: "v1", MatchWeight: 0.7, VerifiedWeight: 0.3},
			},
		},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// ActiveWeights returns the weight version selected by active_version,
// falling back to the first configured version.
func (c *Config) ActiveWeights() WeightVersion {
	for _, v := range c.Leaderboard.Versions {
		if v.ID == c.Leaderboard.ActiveVersion {
			return v
		}
	}
	if len(c.Leaderboard.Versions) > 0 {
		return c.Leaderboard.Versions[0]
	}
	return WeightVersion{ID: c.Leaderboard.ActiveVersion, MatchWeight: 1}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
