package docsource

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// LocalSource reads PDFs from a directory tree. Useful for backfills from a
// downloaded export and for tests.
type LocalSource struct {
	root string
}

// NewLocalSource returns a source rooted at dir.
func NewLocalSource(dir string) *LocalSource {
	return &LocalSource{root: dir}
}

// List walks root/location and returns every .pdf file ordered by path.
func (s *LocalSource) List(ctx context.Context, location string) ([]Document, error) {
	base := filepath.Join(s.root, location)

	var docs []Document
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !isPDF(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		docs = append(docs, Document{URI: "file://" + filepath.ToSlash(p), Name: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("List: walking %q: %w", base, err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// Fetch reads the document from disk.
func (s *LocalSource) Fetch(ctx context.Context, doc Document) ([]byte, error) {
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(doc.Name)))
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading %s: %w", doc.URI, err)
	}
	return data, nil
}

// Upload copies filePath to root/name.
func (s *LocalSource) Upload(ctx context.Context, name, filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("Upload: %w", err)
	}
	dst := filepath.Join(s.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("Upload: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("Upload: %w", err)
	}
	return "file://" + filepath.ToSlash(dst), nil
}
