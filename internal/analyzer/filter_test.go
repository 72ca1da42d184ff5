package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldExcludeFolder(t *testing.T) {
	substring := FilterConfig{
		FolderExclusions:       []string{"bin", "Node_Modules", " ", ""},
		FolderFilteringEnabled: true,
	}
	exact := substring
	exact.FolderMatch = MatchExact

	tests := []struct {
		name string
		dir  string
		cfg  FilterConfig
		want bool
	}{
		{"exact token", "bin", substring, true},
		{"case-insensitive", "BIN", substring, true},
		{"substring contains", "cabinet", substring, true},
		{"mixed-case token", "node_modules", substring, true},
		{"no match", "src", substring, false},
		{"exact mode rejects substring", "cabinet", exact, false},
		{"exact mode accepts equal", "Bin", exact, true},
		{"disabled toggle", "bin", FilterConfig{FolderExclusions: []string{"bin"}}, false},
		{"empty tokens ignored", "anything", FilterConfig{FolderExclusions: []string{""}, FolderFilteringEnabled: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldExcludeFolder(tt.dir, tt.cfg))
		})
	}
}

func TestShouldExcludeFile(t *testing.T) {
	cfg := FilterConfig{
		FileExclusions:       []string{".log", ".TMP", "README.*", "*.min.js", "Makefile", "[bad", "file[1].txt", "[id].tsx", "a?.cfg"},
		FileFilteringEnabled: true,
	}

	tests := []struct {
		name string
		file string
		want bool
	}{
		{"extension", "app.log", true},
		{"extension case-insensitive", "Cache.Tmp", true},
		{"extension must be exact", "app.logx", false},
		{"extension token does not match name", "log", false},
		{"glob on name", "README.md", true},
		{"glob case-insensitive", "readme.txt", true},
		{"glob with suffix", "bundle.min.js", true},
		{"glob miss", "bundle.js", false},
		{"exact name without wildcard", "makefile", true},
		{"unbalanced bracket is literal", "[bad", true},
		{"brackets in exact name", "file[1].txt", true},
		{"brackets are not a character class", "file1.txt", false},
		{"route file name", "[id].tsx", true},
		{"route file with other param", "[slug].tsx", false},
		{"question mark is literal", "a?.cfg", true},
		{"question mark is not a wildcard", "ab.cfg", false},
		{"kept file", "main.go", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := ""
			if i := lastDot(tt.file); i > 0 {
				ext = tt.file[i:]
			}
			assert.Equal(t, tt.want, ShouldExcludeFile(tt.file, ext, cfg))
		})
	}

	cfg.FileFilteringEnabled = false
	assert.False(t, ShouldExcludeFile("app.log", ".log", cfg))
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

func TestParseFolderMatch(t *testing.T) {
	assert.Equal(t, MatchExact, ParseFolderMatch(" Exact "))
	assert.Equal(t, MatchSubstring, ParseFolderMatch("substring"))
	assert.Equal(t, MatchSubstring, ParseFolderMatch(""))
	assert.Equal(t, "exact", MatchExact.String())
}

func TestFilterConfig_Clone(t *testing.T) {
	cfg := FilterConfig{FolderExclusions: []string{"bin"}, FileExclusions: []string{".log"}}
	clone := cfg.Clone()
	cfg.FolderExclusions[0] = "obj"
	cfg.FileExclusions[0] = ".tmp"

	assert.Equal(t, []string{"bin"}, clone.FolderExclusions)
	assert.Equal(t, []string{".log"}, clone.FileExclusions)
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"*", "", true},
		{"*", "anything", true},
		{"", "", true},
		{"", "a", false},
		{"a*b*c", "abc", true},
		{"a*b*c", "axxbyyc", true},
		{"a*b*c", "axxbyy", false},
		{"*.min.js", "x.min.min.js", true},
		{"**.go", "main.go", true},
		{"report*", "report", true},
		{"[id]*", "[id].tsx", true},
		{`a\b`, `a\b`, true},
		{"café*", "café.txt", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchesPattern(tt.pattern, tt.name), "%q vs %q", tt.pattern, tt.name)
	}
}
