package report

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jadenpxrk/treescope/internal/analyzer"
)

type yamlDocument struct {
	Root    string       `yaml:"root"`
	Summary yamlSummary  `yaml:"summary"`
	Tree    yamlTreeNode `yaml:"tree"`
}

type yamlSummary struct {
	Files   int    `yaml:"files"`
	Folders int    `yaml:"folders"`
	Bytes   int64  `yaml:"bytes"`
	Size    string `yaml:"size"`
}

type yamlTreeNode struct {
	Name      string         `yaml:"name"`
	Path      string         `yaml:"path"`
	Type      string         `yaml:"type"`
	Extension string         `yaml:"extension,omitempty"`
	Files     int            `yaml:"files,omitempty"`
	Bytes     int64          `yaml:"bytes"`
	Children  []yamlTreeNode `yaml:"children,omitempty"`
}

func toYAMLNode(e *analyzer.Entry, rootPath string, depth int) yamlTreeNode {
	node := yamlTreeNode{
		Name:      e.Name(),
		Path:      ".",
		Type:      e.Kind().String(),
		Extension: e.Extension(),
		Bytes:     e.Size(),
	}
	if depth > 0 {
		node.Path = relativePath(e.FullPath(), rootPath)
	}
	if e.IsDir() {
		node.Files = e.FileCount()
	}
	for _, c := range e.Children() {
		node.Children = append(node.Children, toYAMLNode(c, rootPath, depth+1))
	}
	return node
}

// WriteYAML writes the tree and its summary as a YAML document.
func (r Report) WriteYAML(w io.Writer) error {
	if r.Root == nil {
		return fmt.Errorf("no tree to export")
	}
	rootPath := r.rootPath()
	sum := analyzer.Summarize(r.Root)

	doc := yamlDocument{
		Root: rootPath,
		Summary: yamlSummary{
			Files:   sum.TotalFiles,
			Folders: sum.TotalFolders,
			Bytes:   sum.TotalSize,
			Size:    FormatSize(sum.TotalSize),
		},
		Tree: toYAMLNode(r.Root, rootPath, 0),
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding yaml report: %w", err)
	}
	return enc.Close()
}
