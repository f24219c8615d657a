package config

import (
	_ "embed"
	"encoding/json"
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

// Model points at the pretrained feature extractor.
type Model struct {
	// Path is the network weights file (ONNX, Caffe model, TensorFlow pb...).
	Path string `toml:"path"`
	// ConfigPath is the optional companion file (Caffe prototxt, pbtxt).
	ConfigPath string `toml:"config_path"`
	// OutputLayer names the layer to read; empty means the network output.
	OutputLayer string `toml:"output_layer"`
	InputSize   int    `toml:"input_size"`
}

// Rearrange controls the similarity pass over image categories.
type Rearrange struct {
	Categories   []string `toml:"categories"`
	MaxDepth     int      `toml:"max_depth"`
	FolderPrefix string   `toml:"folder_prefix"`
}

// Journal controls the sqlite move journal.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Debug bool   `toml:"debug"`
	File  string `toml:"file"`
}

// Config encapsulates all configuration values for foldersort.
//
// Categories maps a category folder name to the extensions (lowercase, no
// leading dot) that belong in it.
type Config struct {
	Categories map[string][]string `toml:"categories"`
	Model      Model               `toml:"model"`
	Rearrange  Rearrange           `toml:"rearrange"`
	Journal    Journal             `toml:"journal"`
	Logging    Logging             `toml:"logging"`
}

// legacyConfig is the config.json layout used by earlier releases.
type legacyConfig struct {
	FileExtensions map[string][]string `json:"FILE_EXTENSIONS"`
}

// Load locates, parses, and validates a configuration file. It returns the
// resolved path and whether a file was found; defaults apply when none was.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		if err := decodeFile(resolvedPath, &cfg); err != nil {
			return nil, "", false, err
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

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		var legacy legacyConfig
		if err := json.NewDecoder(file).Decode(&legacy); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
		if len(legacy.FileExtensions) == 0 {
			return errors.New("parse config: FILE_EXTENSIONS missing or empty")
		}
		cfg.Categories = legacy.FileExtensions
		return nil
	}

	// A file that declares its own categories replaces the default set.
	cfg.Categories = nil
	decoder := toml.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if cfg.Categories == nil {
		cfg.Categories = defaultCategories()
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	for _, candidate := range []string{"foldersort.toml", "config.json"} {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			return "", false, err
		}
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			return abs, true, nil
		}
	}

	return "", false, nil
}

// CategoryFor returns the category owning ext. ext may carry a leading dot
// and any case.
func (c *Config) CategoryFor(ext string) (string, bool) {
	ext = normalizeExtension(ext)
	if ext == "" {
		return "", false
	}
	for name, exts := range c.Categories {
		for _, candidate := range exts {
			if candidate == ext {
				return name, true
			}
		}
	}
	return "", false
}

// CategoryNames returns the configured category folder names.
func (c *Config) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for name := range c.Categories {
		names = append(names, name)
	}
	return names
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
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
