// Package objstore is the object-storage collaborator: it holds template bytes
// and receives rendered artifacts.
package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds the S3-compatible endpoint settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// FromEnvironment reads the DOCMERGE_S3_* variables.
func FromEnvironment() Config {
	return Config{
		Endpoint:  getenv("DOCMERGE_S3_ENDPOINT", "localhost:9000"),
		AccessKey: os.Getenv("DOCMERGE_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("DOCMERGE_S3_SECRET_KEY"),
		Bucket:    getenv("DOCMERGE_S3_BUCKET", "docmerge"),
		UseSSL:    os.Getenv("DOCMERGE_S3_USE_SSL") == "true",
	}
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// Store is a minio-backed template/artifact store.
type Store struct {
	client *minio.Client
	bucket string
}

// New connects to the object store.
func New(cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// GetTemplateBytes downloads a template object.
func (s *Store) GetTemplateBytes(ctx context.Context, ref string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get template %s: %w", ref, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", ref, err)
	}
	return data, nil
}

// PutArtifact uploads a rendered artifact and returns its storage URL.
func (s *Store) PutArtifact(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put artifact %s: %w", name, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, name), nil
}
