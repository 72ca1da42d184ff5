package analyzer

import "strings"

// FolderMatch selects how folder exclusion tokens are compared to names.
type FolderMatch int

const (
	// MatchSubstring excludes a folder whose name contains a token.
	MatchSubstring FolderMatch = iota
	// MatchExact excludes a folder whose name equals a token.
	MatchExact
)

func (m FolderMatch) String() string {
	if m == MatchExact {
		return "exact"
	}
	return "substring"
}

// ParseFolderMatch maps "exact" to MatchExact and anything else to MatchSubstring.
func ParseFolderMatch(s string) FolderMatch {
	if strings.EqualFold(strings.TrimSpace(s), "exact") {
		return MatchExact
	}
	return MatchSubstring
}

// FilterConfig holds the exclusion rules for one analysis run. All
// comparisons are case-insensitive. A disabled toggle makes the
// corresponding exclusion list behave as if it were empty.
type FilterConfig struct {
	FolderExclusions       []string
	FileExclusions         []string
	FolderFilteringEnabled bool
	FileFilteringEnabled   bool
	FolderMatch            FolderMatch

	// RespectGitignore additionally excludes entries matched by a
	// .gitignore file at the analysis root.
	RespectGitignore bool
	// MaxDepth stops descending below this many levels (0 means unlimited).
	MaxDepth int
}

// Clone returns a deep copy so the caller can keep mutating its own lists.
func (c FilterConfig) Clone() FilterConfig {
	c.FolderExclusions = append([]string(nil), c.FolderExclusions...)
	c.FileExclusions = append([]string(nil), c.FileExclusions...)
	return c
}

// ShouldExcludeFolder reports whether a directory named name is excluded.
func ShouldExcludeFolder(name string, cfg FilterConfig) bool {
	if !cfg.FolderFilteringEnabled {
		return false
	}
	lower := strings.ToLower(name)
	for _, token := range cfg.FolderExclusions {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		switch cfg.FolderMatch {
		case MatchExact:
			if lower == token {
				return true
			}
		default:
			if strings.Contains(lower, token) {
				return true
			}
		}
	}
	return false
}

// ShouldExcludeFile reports whether a file is excluded. A token that starts
// with "." and has no wildcard matches the extension exactly; any other token
// is matched against the whole file name, with "*" as the only wildcard.
func ShouldExcludeFile(name, extension string, cfg FilterConfig) bool {
	if !cfg.FileFilteringEnabled {
		return false
	}
	lowerName := strings.ToLower(name)
	lowerExt := strings.ToLower(extension)
	for _, token := range cfg.FileExclusions {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		if strings.HasPrefix(token, ".") && !strings.Contains(token, "*") {
			if lowerExt == token {
				return true
			}
			continue
		}
		if matchesPattern(token, lowerName) {
			return true
		}
	}
	return false
}

// matchesPattern reports whether name matches pattern. Only '*' is special:
// it matches any run of characters, including none. Brackets, '?' and
// backslashes are literal, so names like "[id].tsx" can be excluded exactly.
func matchesPattern(pattern, name string) bool {
	p, n := 0, 0
	star, mark := -1, 0
	for n < len(name) {
		switch {
		case p < len(pattern) && pattern[p] == '*':
			star, mark = p, n
			p++
		case p < len(pattern) && pattern[p] == name[n]:
			p++
			n++
		case star >= 0:
			// Let the last star absorb one more character and retry.
			mark++
			n = mark
			p = star + 1
		default:
			return false
		}
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}
