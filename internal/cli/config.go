package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/tailscale/hujson"
)

// Config holds the settings the conduit shell reads at startup.
type Config struct {
	// RootDir is the directory walked to seed the engine's active index.
	RootDir string `json:"root_dir,omitempty"` //nolint:tagliatelle
	// Includes/Excludes are glob patterns applied while seeding RootDir.
	Includes []string `json:"includes,omitempty"`
	Excludes []string `json:"excludes,omitempty"`
	// MaxFileBytes skips files larger than this during seeding. Zero means
	// no limit.
	MaxFileBytes int64 `json:"max_file_bytes,omitempty"` //nolint:tagliatelle
}

// ConfigFileName is the default project config file name, JSONC (comments
// and trailing commas allowed, standardized via hujson before parsing).
const ConfigFileName = ".conduit.json"

// DefaultConfig returns the baseline configuration applied before any
// config file or CLI override is merged in.
func DefaultConfig() Config {
	return Config{
		RootDir:      ".",
		MaxFileBytes: 8 << 20,
	}
}

var errConfigFileRead = errors.New("failed to read config file")

// LoadConfig loads configuration with the following precedence (highest
// wins), mirroring the global-then-project-then-CLI chain the ticket
// tool uses, with dario.cat/mergo folding each layer into the next instead
// of a hand-rolled field-by-field merge:
//  1. Defaults
//  2. Global user config (~/.config/conduit/config.json)
//  3. Project config file (.conduit.json in workDir)
//  4. CLI overrides
func LoadConfig(workDir string, cliOverrides Config) (Config, error) {
	cfg := DefaultConfig()

	globalPath := globalConfigPath()
	if globalPath != "" {
		globalCfg, loaded, err := loadConfigFile(globalPath)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			if err := mergo.Merge(&cfg, globalCfg, mergo.WithOverride); err != nil {
				return Config{}, fmt.Errorf("merge global config: %w", err)
			}
		}
	}

	projectPath := filepath.Join(workDir, ConfigFileName)

	projectCfg, loaded, err := loadConfigFile(projectPath)
	if err != nil {
		return Config{}, err
	}

	if loaded {
		if err := mergo.Merge(&cfg, projectCfg, mergo.WithOverride); err != nil {
			return Config{}, fmt.Errorf("merge project config: %w", err)
		}
	}

	if err := mergo.Merge(&cfg, cliOverrides, mergo.WithOverride); err != nil {
		return Config{}, fmt.Errorf("merge CLI overrides: %w", err)
	}

	return cfg, nil
}

func globalConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "conduit", "config.json")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "conduit", "config.json")
}

func loadConfigFile(path string) (Config, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("%w: %s", errConfigFileRead, path)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("invalid JSONC in %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, false, fmt.Errorf("invalid config in %s: %w", path, err)
	}

	return cfg, true, nil
}
