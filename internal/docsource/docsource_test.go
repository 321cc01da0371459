package docsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGCSURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{"gs://owner-pdfs/statements/march.pdf", "owner-pdfs", "statements/march.pdf", false},
		{"gs://owner-pdfs/a.pdf", "owner-pdfs", "a.pdf", false},
		{"gs://owner-pdfs", "", "", true},
		{"gs://owner-pdfs/", "", "", true},
		{"s3://owner-pdfs/a.pdf", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseGCSURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantObject, object)
			assert.Equal(t, tt.uri, GCSURI(bucket, object))
		})
	}
}

func TestIsPDF(t *testing.T) {
	assert.True(t, isPDF("statements/march.pdf"))
	assert.True(t, isPDF("MARCH.PDF"))
	assert.False(t, isPDF("statements/"))
	assert.False(t, isPDF("notes.txt"))
	assert.False(t, isPDF("pdf"))
}

func TestDocument_Filename(t *testing.T) {
	assert.Equal(t, "march.pdf", Document{Name: "statements/2024/march.pdf"}.Filename())
}

func TestS3URI(t *testing.T) {
	assert.Equal(t, "s3://owner-pdfs/tax/a.pdf", S3URI("owner-pdfs", "tax/a.pdf"))
	assert.Equal(t, "s3://owner-pdfs/tax/a.pdf", S3URI("owner-pdfs", "/tax/a.pdf"))
}

func TestLocalSource_ListAndFetch(t *testing.T) {
	root := t.TempDir()
	write := func(rel, body string) {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	write("statements/b.pdf", "second")
	write("statements/a.pdf", "first")
	write("statements/readme.txt", "skip")
	write("statements/2024/c.PDF", "nested")
	write("tax/t.pdf", "other folder")

	src := NewLocalSource(root)
	docs, err := src.List(context.Background(), "statements")
	require.NoError(t, err)

	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	assert.Equal(t, []string{"statements/2024/c.PDF", "statements/a.pdf", "statements/b.pdf"}, names)

	data, err := src.Fetch(context.Background(), docs[1])
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestLocalSource_Upload(t *testing.T) {
	root := t.TempDir()
	srcFile := filepath.Join(t.TempDir(), "in.pdf")
	require.NoError(t, os.WriteFile(srcFile, []byte("%PDF-1.4"), 0o644))

	src := NewLocalSource(root)
	uri, err := src.Upload(context.Background(), "statements/in.pdf", srcFile)
	require.NoError(t, err)
	assert.Contains(t, uri, "statements/in.pdf")

	docs, err := src.List(context.Background(), "statements")
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestLocalSource_MissingDir(t *testing.T) {
	_, err := NewLocalSource(t.TempDir()).List(context.Background(), "nope")
	assert.Error(t, err)
}

func TestLocalSource_FetchReadErrorIsWrapped(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "statements", "folder.pdf"), 0o755))

	doc := Document{URI: "file://" + filepath.ToSlash(filepath.Join(root, "statements", "folder.pdf")), Name: "statements/folder.pdf"}
	_, err := NewLocalSource(root).Fetch(context.Background(), doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Fetch: reading")
	assert.Contains(t, err.Error(), "folder.pdf")
}
