package docsource

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Source lists and fetches PDFs in an S3 bucket.
type S3Source struct {
	client *s3.Client
	bucket string
}

// NewS3Source loads the default AWS configuration for region.
func NewS3Source(ctx context.Context, bucket, region string) (*S3Source, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewS3Source: load AWS config: %w", err)
	}
	return &S3Source{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

// List returns every .pdf key under prefix, ordered by key.
func (s *S3Source) List(ctx context.Context, prefix string) ([]Document, error) {
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var docs []Document
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("List: s3://%s/%s: %w", s.bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !isPDF(key) {
				continue
			}
			docs = append(docs, Document{URI: S3URI(s.bucket, key), Name: key})
		}
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// Fetch downloads the document bytes.
func (s *S3Source) Fetch(ctx context.Context, doc Document) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(doc.Name),
	})
	if err != nil {
		return nil, fmt.Errorf("Fetch: get %s: %w", doc.URI, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("Fetch: read %s: %w", doc.URI, err)
	}
	return data, nil
}

// Upload copies a local file into the bucket and returns its s3:// URI.
func (s *S3Source) Upload(ctx context.Context, key, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("Upload: open file %q: %w", filePath, err)
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("Upload: put %s: %w", key, err)
	}
	return S3URI(s.bucket, key), nil
}

// S3URI formats an s3:// URI.
func S3URI(bucket, key string) string {
	return "s3://" + bucket + "/" + strings.TrimPrefix(key, "/")
}
