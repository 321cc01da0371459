package docsource

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSSource lists and fetches PDFs in a Cloud Storage bucket.
type GCSSource struct {
	client *storage.Client
	bucket string
}

// NewGCSSource creates a storage client for bucket.
func NewGCSSource(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSSource, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewGCSSource: create storage client: %w", err)
	}
	return &GCSSource{client: client, bucket: bucket}, nil
}

// NewGCSSourceWithClient wraps an existing client.
func NewGCSSourceWithClient(client *storage.Client, bucket string) *GCSSource {
	return &GCSSource{client: client, bucket: bucket}
}

// Close releases the storage client.
func (s *GCSSource) Close() error {
	return s.client.Close()
}

// List returns every .pdf object under prefix, ordered by object name.
func (s *GCSSource) List(ctx context.Context, prefix string) ([]Document, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var docs []Document
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("List: iterating gs://%s/%s: %w", s.bucket, prefix, err)
		}
		if !isPDF(attrs.Name) {
			continue
		}
		docs = append(docs, Document{URI: GCSURI(s.bucket, attrs.Name), Name: attrs.Name})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// Fetch downloads the document bytes.
func (s *GCSSource) Fetch(ctx context.Context, doc Document) ([]byte, error) {
	bucket, object, err := ParseGCSURI(doc.URI)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}

	r, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: open GCS object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("Fetch: read GCS object: %w", err)
	}
	return data, nil
}

// Upload copies a local file into the bucket and returns its gs:// URI.
func (s *GCSSource) Upload(ctx context.Context, objectName, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("Upload: open file %q: %w", filePath, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "application/pdf"

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Upload: copy file to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Upload: finalize upload: %w", err)
	}
	return GCSURI(s.bucket, objectName), nil
}

// GCSURI formats a gs:// URI.
func GCSURI(bucket, object string) string {
	return "gs://" + bucket + "/" + object
}

// ParseGCSURI splits gs://bucket/path/to/file.pdf into bucket and object.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}
