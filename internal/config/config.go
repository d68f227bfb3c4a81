package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the staging-area layout the pipeline deploys with: sibling
// data and results directories plus a log directory.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	ResultsDir string `toml:"results_dir"`
	LogDir     string `toml:"log_dir"`
}

// Storage contains durable-storage defaults. CloudMode and OutputPath may be
// overridden per invocation from the command line.
type Storage struct {
	CloudMode  bool   `toml:"cloud_mode"`
	OutputPath string `toml:"output_path"`
}

// Transfer contains settings for the external relocation primitive.
type Transfer struct {
	AWSBinary string `toml:"aws_binary"`
}

// Viewer contains neuroglancer link generation settings.
type Viewer struct {
	BaseURL string `toml:"base_url"`
	Palette string `toml:"palette"`
}

// Pipeline identifies the pipeline run recorded into compiled provenance.
type Pipeline struct {
	Version       string `toml:"version"`
	Processor     string `toml:"processor"`
	RepositoryURL string `toml:"repository_url"`
}

// Journal contains settings for the optional relocation journal.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the dispatcher.
//
// Configuration sections by subsystem:
//   - Paths: staging-area data/results layout and log directory
//   - Storage: cloud mode default and durable output path
//   - Transfer: aws CLI binary used for object-storage relocation
//   - Viewer: neuroglancer base URL and color palette selection
//   - Pipeline: version/processor identity stamped into provenance
//   - Journal: optional SQLite relocation journal
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Storage  Storage  `toml:"storage"`
	Transfer Transfer `toml:"transfer"`
	Viewer   Viewer   `toml:"viewer"`
	Pipeline Pipeline `toml:"pipeline"`
	Journal  Journal  `toml:"journal"`
	Logging  Logging  `toml:"logging"`
}

// Load locates, parses, and validates a configuration file. Missing files are
// not an error; defaults apply. The returned config has all path fields
// expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("dispatcher.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the dispatcher writes into. The
// data directory is upstream input and is never created here.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ResultsDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DefaultConfigPath returns the standard per-user configuration location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/dispatcher/config.toml")
}

// ExpandPath resolves a leading tilde and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
