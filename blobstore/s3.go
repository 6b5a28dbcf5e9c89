package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// S3Config holds connection settings for an S3-compatible object store.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Store implements Store on top of an S3-compatible object store
// (AWS S3, MinIO, and friends). Directories are key prefixes.
type S3Store struct {
	client *minio.Client
	bucket string
	logger zerolog.Logger
}

// NewS3Store creates an S3Store and verifies the bucket is reachable.
func NewS3Store(ctx context.Context, cfg S3Config, logger zerolog.Logger) (*S3Store, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("storage endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	s := &S3Store{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With().Str("component", "blobstore").Str("bucket", cfg.Bucket).Logger(),
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
		s.logger.Info().Msg("Created storage bucket")
	}

	return s, nil
}

func (s *S3Store) key(dir, name string) string {
	return path.Join(dir, name)
}

// ReadFile implements Store.ReadFile.
func (s *S3Store) ReadFile(ctx context.Context, dir, name string) (string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(dir, name), minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to get %s/%s: %w", dir, name, err)
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read %s/%s: %w", dir, name, err)
	}
	return string(data), nil
}

// WriteFile implements Store.WriteFile.
func (s *S3Store) WriteFile(ctx context.Context, dir, name, content string) error {
	reader := bytes.NewReader([]byte(content))
	_, err := s.client.PutObject(ctx, s.bucket, s.key(dir, name), reader, int64(reader.Len()),
		minio.PutObjectOptions{ContentType: contentType(name)})
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", dir, name, err)
	}
	return nil
}

// Exists implements Store.Exists.
func (s *S3Store) Exists(ctx context.Context, dir, name string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, s.key(dir, name), minio.StatObjectOptions{})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s/%s: %w", dir, name, err)
	}
	return true, nil
}

// List implements Store.List. Only blobs directly under dir are returned.
func (s *S3Store) List(ctx context.Context, dir string) ([]string, error) {
	prefix := strings.TrimSuffix(dir, "/") + "/"
	var names []string
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", dir, info.Err)
		}
		name := strings.TrimPrefix(info.Key, prefix)
		if name == "" || strings.HasSuffix(name, "/") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Delete implements Store.Delete.
func (s *S3Store) Delete(ctx context.Context, dir, name string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, s.key(dir, name), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", dir, name, err)
	}
	return nil
}

// EnsureDirectory implements Store.EnsureDirectory. Object stores have no
// real directories, so this only verifies the bucket is reachable.
func (s *S3Store) EnsureDirectory(ctx context.Context, dir string) bool {
	if dir == "" {
		return false
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil || !exists {
		s.logger.Error().Err(err).Str("dir", dir).Msg("Error ensuring directory exists")
		return false
	}
	return true
}

func contentType(name string) string {
	if strings.HasSuffix(name, ".json") {
		return "application/json"
	}
	return "text/plain"
}
