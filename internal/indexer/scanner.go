package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// ScannedFile is a course document found in the documents directory.
type ScannedFile struct {
	Name    string // File name, used as the document id
	AbsPath string
}

// ScanDocuments lists the .txt and .md files directly under dir in name order.
// Subdirectories and hidden files are ignored.
func ScanDocuments(ctx context.Context, dir string) ([]ScannedFile, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve documents directory %s: %w", dir, err)
	}

	var files []ScannedFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !isCourseDocument(d.Name()) {
			return nil
		}

		files = append(files, ScannedFile{Name: d.Name(), AbsPath: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan documents directory %s: %w", dir, err)
	}
	return files, nil
}
