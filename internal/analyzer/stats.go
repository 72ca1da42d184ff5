package analyzer

// Summary holds whole-tree totals.
type Summary struct {
	TotalFiles   int
	TotalFolders int // directories below the root; the root itself is not counted
	TotalSize    int64
}

// Summarize computes totals for a built tree without touching the filesystem.
func Summarize(root *Entry) Summary {
	if root == nil {
		return Summary{}
	}
	folders := 0
	_ = Walk(root, func(e *Entry, depth int) error {
		if e.IsDir() && depth > 0 {
			folders++
		}
		return nil
	})
	return Summary{
		TotalFiles:   root.FileCount(),
		TotalFolders: folders,
		TotalSize:    root.Size(),
	}
}
