package indexer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is one source file loaded for indexing.
type Document struct {
	Path    string
	Name    string
	Content string
}

// LoadDocuments reads the plain-text knowledge sources (.txt and .md) from
// a directory tree. Other file types are skipped; binary formats are
// converted to text upstream of this pipeline.
func LoadDocuments(dir string) ([]Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot access source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path %s is not a directory", dir)
	}

	var docs []Document
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".txt" && ext != ".md" {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		docs = append(docs, Document{
			Path:    path,
			Name:    d.Name(),
			Content: string(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}
