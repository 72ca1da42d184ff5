// Package settings loads and persists user preferences: exclusion filters,
// the last analyzed directory and logging options.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jadenpxrk/treescope/internal/analyzer"
	"github.com/jadenpxrk/treescope/internal/filelock"
	"github.com/jadenpxrk/treescope/internal/logger"
)

// Configuration keys.
const (
	KeyFolderFilters       = "filters.folder_filters"
	KeyFileFilters         = "filters.file_filters"
	KeyEnableFolderFilters = "filters.enable_folder_filters"
	KeyEnableFileFilters   = "filters.enable_file_filters"
	KeyFolderMatch         = "filters.folder_match"
	KeyRespectGitignore    = "filters.respect_gitignore"
	KeyLastSelectedPath    = "application.last_selected_path"
	KeyAutoSave            = "application.auto_save_settings"
	KeyEnableLogging       = "application.enable_logging"
	KeyLogLevel            = "application.log_level"
	KeyWorkers             = "analysis.workers"
	KeyMaxDepth            = "analysis.max_depth"
)

const (
	// ConfigName is the settings file name without extension.
	ConfigName = "config"
	// EnvPrefix prefixes environment overrides, e.g. TREESCOPE_ANALYSIS_WORKERS.
	EnvPrefix = "TREESCOPE"
)

// File is the persisted settings document.
type File struct {
	Filters     Filters     `yaml:"filters"`
	Application Application `yaml:"application"`
	Analysis    Analysis    `yaml:"analysis"`
}

type Filters struct {
	FolderFilters       []string `yaml:"folder_filters"`
	FileFilters         []string `yaml:"file_filters"`
	EnableFolderFilters bool     `yaml:"enable_folder_filters"`
	EnableFileFilters   bool     `yaml:"enable_file_filters"`
	FolderMatch         string   `yaml:"folder_match"`
	RespectGitignore    bool     `yaml:"respect_gitignore"`
}

type Application struct {
	LastSelectedPath string `yaml:"last_selected_path"`
	AutoSaveSettings bool   `yaml:"auto_save_settings"`
	EnableLogging    bool   `yaml:"enable_logging"`
	LogLevel         string `yaml:"log_level"`
}

type Analysis struct {
	Workers  int `yaml:"workers"`
	MaxDepth int `yaml:"max_depth"`
}

// Defaults returns the built-in settings.
func Defaults() File {
	return File{
		Filters: Filters{
			FolderFilters:       []string{"bin", "obj", ".git", ".vs", "node_modules", "packages"},
			FileFilters:         []string{".user", ".suo", ".cache", ".tmp", ".log"},
			EnableFolderFilters: true,
			EnableFileFilters:   true,
			FolderMatch:         analyzer.MatchSubstring.String(),
		},
		Application: Application{
			AutoSaveSettings: true,
			EnableLogging:    true,
			LogLevel:         "info",
		},
	}
}

// fillEmpty restores defaults for lists and strings a user file left empty.
func (f *File) fillEmpty() {
	d := Defaults()
	if len(f.Filters.FolderFilters) == 0 {
		f.Filters.FolderFilters = d.Filters.FolderFilters
	}
	if len(f.Filters.FileFilters) == 0 {
		f.Filters.FileFilters = d.Filters.FileFilters
	}
	if f.Filters.FolderMatch == "" {
		f.Filters.FolderMatch = d.Filters.FolderMatch
	}
	if f.Application.LogLevel == "" {
		f.Application.LogLevel = d.Application.LogLevel
	}
}

// Options controls where settings are read from.
type Options struct {
	// ConfigFile is an explicit settings file. It need not exist yet.
	ConfigFile string
	// SearchDirs are searched in order for config.yaml when ConfigFile is
	// empty. New settings are saved in the first one.
	SearchDirs []string
	Logger     logger.Logger
}

// DefaultDir is $HOME/.config/treescope.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".config", "treescope"), nil
}

// Settings is the effective configuration: defaults, overridden by the
// settings file, then TREESCOPE_* environment variables, then bound flags.
// Only the file layer is ever written back. Settings is safe for
// concurrent use.
type Settings struct {
	mu     sync.RWMutex
	v      *viper.Viper
	stored File
	path   string
	found  bool
	logger logger.Logger
}

// Load reads settings according to opts. A missing settings file is not an
// error; a malformed one is.
func Load(opts Options) (*Settings, error) {
	s := &Settings{
		v:      viper.New(),
		stored: Defaults(),
		logger: logger.OrNop(opts.Logger),
	}
	s.v.SetConfigType("yaml")
	setDefaults(s.v, s.stored)

	s.v.SetEnvPrefix(EnvPrefix)
	s.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	s.v.AutomaticEnv()

	dirs := opts.SearchDirs
	if opts.ConfigFile != "" {
		s.path = opts.ConfigFile
		if _, err := os.Stat(s.path); err != nil {
			s.logger.Debug("Settings file not readable, using defaults", logger.F("path", s.path), logger.Err(err))
			return s, nil
		}
		s.v.SetConfigFile(opts.ConfigFile)
	} else {
		if len(dirs) == 0 {
			dir, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dirs = []string{dir, "."}
		}
		for _, dir := range dirs {
			s.v.AddConfigPath(dir)
		}
		s.v.SetConfigName(ConfigName)
		s.path = filepath.Join(dirs[0], ConfigName+".yaml")
	}

	err := s.v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		s.found = true
		s.path = s.v.ConfigFileUsed()
	case errors.As(err, &notFound):
		s.logger.Debug("No settings file found, using defaults", logger.F("path", s.path))
		return s, nil
	default:
		return nil, fmt.Errorf("reading settings %s: %w", s.path, err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading settings %s: %w", s.path, err)
	}
	// Decoding over the defaults keeps every key the file omits.
	if err := yaml.Unmarshal(data, &s.stored); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", s.path, err)
	}
	s.stored.fillEmpty()
	s.logger.Info("Loaded settings", logger.F("path", s.path))
	return s, nil
}

func setDefaults(v *viper.Viper, f File) {
	v.SetDefault(KeyFolderFilters, f.Filters.FolderFilters)
	v.SetDefault(KeyFileFilters, f.Filters.FileFilters)
	v.SetDefault(KeyEnableFolderFilters, f.Filters.EnableFolderFilters)
	v.SetDefault(KeyEnableFileFilters, f.Filters.EnableFileFilters)
	v.SetDefault(KeyFolderMatch, f.Filters.FolderMatch)
	v.SetDefault(KeyRespectGitignore, f.Filters.RespectGitignore)
	v.SetDefault(KeyLastSelectedPath, f.Application.LastSelectedPath)
	v.SetDefault(KeyAutoSave, f.Application.AutoSaveSettings)
	v.SetDefault(KeyEnableLogging, f.Application.EnableLogging)
	v.SetDefault(KeyLogLevel, f.Application.LogLevel)
	v.SetDefault(KeyWorkers, f.Analysis.Workers)
	v.SetDefault(KeyMaxDepth, f.Analysis.MaxDepth)
}

// BindFlag lets flag override key whenever the flag is set on the command line.
func (s *Settings) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("binding %s: flag not defined", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.BindPFlag(key, flag)
}

// Path is the settings file location, whether or not it exists yet.
func (s *Settings) Path() string { return s.path }

// Found reports whether a settings file was read.
func (s *Settings) Found() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.found
}

func (s *Settings) list(key string, def []string) []string {
	s.mu.RLock()
	raw := s.v.GetStringSlice(key)
	s.mu.RUnlock()

	// Environment values arrive as one comma-separated string.
	var out []string
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}

func (s *Settings) str(key, def string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v := strings.TrimSpace(s.v.GetString(key)); v != "" {
		return v
	}
	return def
}

func (s *Settings) boolean(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetBool(key)
}

func (s *Settings) integer(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetInt(key)
}

func (s *Settings) FolderExclusions() []string {
	return s.list(KeyFolderFilters, Defaults().Filters.FolderFilters)
}

func (s *Settings) FileExclusions() []string {
	return s.list(KeyFileFilters, Defaults().Filters.FileFilters)
}

func (s *Settings) FolderFilteringEnabled() bool { return s.boolean(KeyEnableFolderFilters) }
func (s *Settings) FileFilteringEnabled() bool   { return s.boolean(KeyEnableFileFilters) }
func (s *Settings) RespectGitignore() bool       { return s.boolean(KeyRespectGitignore) }
func (s *Settings) AutoSave() bool               { return s.boolean(KeyAutoSave) }
func (s *Settings) LoggingEnabled() bool         { return s.boolean(KeyEnableLogging) }

func (s *Settings) FolderMatch() analyzer.FolderMatch {
	return analyzer.ParseFolderMatch(s.str(KeyFolderMatch, ""))
}

// LogLevel is the configured level, or silent when logging is disabled.
func (s *Settings) LogLevel() logger.Level {
	if !s.LoggingEnabled() {
		return logger.LevelSilent
	}
	return logger.ParseLevel(s.str(KeyLogLevel, Defaults().Application.LogLevel))
}

// Workers is the sibling traversal parallelism; 0 selects the CPU count.
func (s *Settings) Workers() int {
	if n := s.integer(KeyWorkers); n > 0 {
		return n
	}
	return 0
}

// MaxDepth is the traversal depth bound; 0 means unlimited.
func (s *Settings) MaxDepth() int {
	if n := s.integer(KeyMaxDepth); n > 0 {
		return n
	}
	return 0
}

// LastPath is the most recently analyzed directory, if any.
func (s *Settings) LastPath() string { return s.str(KeyLastSelectedPath, "") }

// SetLastPath records path and saves the settings file when auto-save is on.
func (s *Settings) SetLastPath(path string) error {
	s.mu.Lock()
	s.v.Set(KeyLastSelectedPath, path)
	s.stored.Application.LastSelectedPath = path
	s.mu.Unlock()

	if !s.AutoSave() {
		return nil
	}
	return s.Save()
}

// Stored returns a copy of the document that Save writes.
func (s *Settings) Stored() File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f := s.stored
	f.Filters.FolderFilters = append([]string(nil), f.Filters.FolderFilters...)
	f.Filters.FileFilters = append([]string(nil), f.Filters.FileFilters...)
	return f
}

// Effective returns the settings in force after environment and flag
// overrides.
func (s *Settings) Effective() File {
	return File{
		Filters: Filters{
			FolderFilters:       s.FolderExclusions(),
			FileFilters:         s.FileExclusions(),
			EnableFolderFilters: s.FolderFilteringEnabled(),
			EnableFileFilters:   s.FileFilteringEnabled(),
			FolderMatch:         s.FolderMatch().String(),
			RespectGitignore:    s.RespectGitignore(),
		},
		Application: Application{
			LastSelectedPath: s.LastPath(),
			AutoSaveSettings: s.AutoSave(),
			EnableLogging:    s.LoggingEnabled(),
			LogLevel:         s.str(KeyLogLevel, Defaults().Application.LogLevel),
		},
		Analysis: Analysis{
			Workers:  s.Workers(),
			MaxDepth: s.MaxDepth(),
		},
	}
}

// Save writes the stored document to Path under an advisory file lock.
func (s *Settings) Save() error {
	f := s.Stored()
	var buf bytes.Buffer
	if err := Encode(&buf, f); err != nil {
		return err
	}
	if err := filelock.WriteBytes(s.path, buf.Bytes()); err != nil {
		s.logger.Error("Could not save settings", logger.F("path", s.path), logger.Err(err))
		return fmt.Errorf("saving settings %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.found = true
	s.mu.Unlock()
	s.logger.Debug("Saved settings", logger.F("path", s.path))
	return nil
}

// Encode writes f as YAML.
func Encode(w io.Writer, f File) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	return enc.Close()
}
