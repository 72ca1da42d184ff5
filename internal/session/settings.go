package session

import "github.com/jadenpxrk/treescope/internal/analyzer"

// SettingsSource supplies persisted filter preferences and remembers the
// last analyzed directory.
type SettingsSource interface {
	FolderExclusions() []string
	FileExclusions() []string
	FolderFilteringEnabled() bool
	FileFilteringEnabled() bool
	LastPath() string
	SetLastPath(path string) error
}

// AnalysisSettings is implemented by sources that also carry the optional
// traversal preferences.
type AnalysisSettings interface {
	FolderMatch() analyzer.FolderMatch
	RespectGitignore() bool
	MaxDepth() int
}

// FilterConfigFrom snapshots s into a FilterConfig. The result shares no
// slices with s.
func FilterConfigFrom(s SettingsSource) analyzer.FilterConfig {
	if s == nil {
		return analyzer.FilterConfig{}
	}
	cfg := analyzer.FilterConfig{
		FolderExclusions:       s.FolderExclusions(),
		FileExclusions:         s.FileExclusions(),
		FolderFilteringEnabled: s.FolderFilteringEnabled(),
		FileFilteringEnabled:   s.FileFilteringEnabled(),
	}
	if a, ok := s.(AnalysisSettings); ok {
		cfg.FolderMatch = a.FolderMatch()
		cfg.RespectGitignore = a.RespectGitignore()
		cfg.MaxDepth = a.MaxDepth()
	}
	return cfg.Clone()
}
