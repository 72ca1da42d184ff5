// Package language attributes analyzed files to programming languages by
// file name and extension. File contents are never read.
package language

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"gopkg.in/yaml.v3"

	"github.com/jadenpxrk/treescope/internal/analyzer"
)

// Other is the bucket for files no language claims.
const Other = "Other"

// FileName is the language definition file searched for by Find.
const FileName = "languages.yml"

// Info holds the detection fields of one languages.yml entry.
type Info struct {
	Type       string   `yaml:"type"`
	Extensions []string `yaml:"extensions"`
	Filenames  []string `yaml:"filenames"`
}

// Map maps language names (e.g. "Go") to their details.
type Map map[string]Info

// Detector resolves a file name to a language. Definitions loaded from a
// languages.yml take precedence; chroma's lexer registry is the fallback.
type Detector struct {
	extensions map[string]string
	filenames  map[string]string
}

// NewDetector builds lookup tables from m. When several languages claim the
// same extension, the alphabetically first language wins.
func NewDetector(m Map) *Detector {
	d := &Detector{
		extensions: make(map[string]string),
		filenames:  make(map[string]string),
	}

	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		info := m[name]
		for _, ext := range info.Extensions {
			ext = strings.ToLower(ext)
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			if _, taken := d.extensions[ext]; !taken {
				d.extensions[ext] = name
			}
		}
		for _, fname := range info.Filenames {
			if _, taken := d.filenames[fname]; !taken {
				d.filenames[fname] = name
			}
		}
	}
	return d
}

// Load parses a languages.yml file.
func Load(path string) (*Detector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading language file %s: %w", path, err)
	}
	var m Map
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing language file %s: %w", path, err)
	}
	return NewDetector(m), nil
}

// Find loads the first languages.yml found in dirs. It returns a detector
// backed only by chroma when none exists.
func Find(dirs ...string) (*Detector, string, error) {
	for _, dir := range dirs {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		d, err := Load(path)
		if err != nil {
			return NewDetector(nil), "", err
		}
		return d, path, nil
	}
	return NewDetector(nil), "", nil
}

// Detect returns the language of a file name.
func (d *Detector) Detect(name string) (string, bool) {
	base := filepath.Base(name)
	if d != nil {
		if lang, ok := d.filenames[base]; ok {
			return lang, true
		}
		if ext := strings.ToLower(filepath.Ext(base)); ext != "" {
			if lang, ok := d.extensions[ext]; ok {
				return lang, true
			}
		}
	}
	if lexer := lexers.Match(base); lexer != nil {
		return lexer.Config().Name, true
	}
	return "", false
}

// Stat aggregates the files attributed to one language.
type Stat struct {
	Language string
	Files    int
	Bytes    int64
}

// Breakdown attributes every file in the tree to a language. The result is
// ordered by file count, then bytes, then name, with Other always last.
func Breakdown(root *analyzer.Entry, d *Detector) []Stat {
	byLang := make(map[string]*Stat)
	_ = analyzer.Walk(root, func(e *analyzer.Entry, _ int) error {
		if e.IsDir() {
			return nil
		}
		lang, ok := d.Detect(e.Name())
		if !ok {
			lang = Other
		}
		s, exists := byLang[lang]
		if !exists {
			s = &Stat{Language: lang}
			byLang[lang] = s
		}
		s.Files++
		s.Bytes += e.Size()
		return nil
	})

	stats := make([]Stat, 0, len(byLang))
	for _, s := range byLang {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		if (a.Language == Other) != (b.Language == Other) {
			return b.Language == Other
		}
		if a.Files != b.Files {
			return a.Files > b.Files
		}
		if a.Bytes != b.Bytes {
			return a.Bytes > b.Bytes
		}
		return a.Language < b.Language
	})
	return stats
}
