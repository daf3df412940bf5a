package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxTagsMax is the largest accepted tags_max.
const MaxTagsMax = 1024

// DirName is the name of both the global (~/.capped) and repo (.capped)
// configuration directories.
const DirName = ".capped"

// Config holds application configuration.
type Config struct {
	// NameMaxChars caps note names, counted in characters.
	NameMaxChars int `json:"name_max_chars"`

	// TitleMaxChars caps note titles, counted in characters.
	TitleMaxChars int `json:"title_max_chars"`

	// BodyMaxBytes caps note bodies, counted in UTF-8 bytes.
	BodyMaxBytes int `json:"body_max_bytes"`

	// TagsMax caps the number of tags on a note.
	TagsMax int `json:"tags_max"`

	// TagMaxChars caps each tag, counted in characters.
	TagMaxChars int `json:"tag_max_chars"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.capped/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use the sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		NameMaxChars:  64,
		TitleMaxChars: 200,
		BodyMaxBytes:  16000,
		TagsMax:       16,
		TagMaxChars:   32,
	}
}

// Validate rejects settings no note could be built from.
func (c *Config) Validate() error {
	limits := []struct {
		name  string
		value int
	}{
		{"name_max_chars", c.NameMaxChars},
		{"title_max_chars", c.TitleMaxChars},
		{"body_max_bytes", c.BodyMaxBytes},
		{"tags_max", c.TagsMax},
		{"tag_max_chars", c.TagMaxChars},
		{"db_max_open_conns", c.DBMaxOpenConns},
		{"db_max_idle_conns", c.DBMaxIdleConns},
	}
	for _, l := range limits {
		if l.value < 0 {
			return fmt.Errorf("config: %s must not be negative (got %d)", l.name, l.value)
		}
	}
	if c.NameMaxChars == 0 {
		return fmt.Errorf("config: name_max_chars must be positive")
	}
	if c.TagsMax > MaxTagsMax {
		return fmt.Errorf("config: tags_max must be at most %d (got %d)", MaxTagsMax, c.TagsMax)
	}
	return nil
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both the global directory and the
// nearest repo .capped directory at or above startDir.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	cfg := Merge(Merge(DefaultConfig(), global), repo)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindRepoConfig walks upward from startDir to find the nearest .capped/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, DirName, "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw returns a zero-valued config (not defaults) if the file doesn't exist.
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", configPath, err)
	}
	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	merged := Merge(DefaultConfig(), cfg)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	return &Config{
		NameMaxChars:     pickInt(base.NameMaxChars, overlay.NameMaxChars),
		TitleMaxChars:    pickInt(base.TitleMaxChars, overlay.TitleMaxChars),
		BodyMaxBytes:     pickInt(base.BodyMaxBytes, overlay.BodyMaxBytes),
		TagsMax:          pickInt(base.TagsMax, overlay.TagsMax),
		TagMaxChars:      pickInt(base.TagMaxChars, overlay.TagMaxChars),
		DBMaxOpenConns:   pickInt(base.DBMaxOpenConns, overlay.DBMaxOpenConns),
		DBMaxIdleConns:   pickInt(base.DBMaxIdleConns, overlay.DBMaxIdleConns),
		AllowUnsafePaths: base.AllowUnsafePaths || overlay.AllowUnsafePaths,
		AllowedPaths:     mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths),
		DisabledTools:    mergeStringSlice(base.DisabledTools, overlay.DisabledTools),
	}
}

// pickInt returns overlay if it is set, else base.
func pickInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
