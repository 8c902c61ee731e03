package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/d60-Lab/sanity-adjacent/config"
)

var ErrUnsupportedType = errors.New("storage: only image uploads are accepted")

// Storage keeps uploaded images (post pictures, avatars) in an S3-compatible bucket.
type Storage struct {
	cfg    config.StorageConfig
	client *minio.Client
}

func New(cfg config.StorageConfig) (*Storage, error) {
	cl, err := minio.New(strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://"), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = 24 * time.Hour
	}
	return &Storage{cfg: cfg, client: cl}, nil
}

func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// Put stores r under key and returns a presigned URL usable as an image reference.
func (s *Storage) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (*url.URL, error) {
	if !IsImage(contentType) {
		return nil, ErrUnsupportedType
	}
	if _, err := s.client.PutObject(ctx, s.cfg.Bucket, key, r, size,
		minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return nil, fmt.Errorf("put %s: %w", key, err)
	}
	return s.PresignGet(ctx, key)
}

func (s *Storage) PresignGet(ctx context.Context, key string) (*url.URL, error) {
	return s.client.PresignedGetObject(ctx, s.cfg.Bucket, key, s.cfg.PresignTTL, nil)
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{})
}

// MaxUpload 单次上传大小上限（字节）
func (s *Storage) MaxUpload() int64 {
	if s.cfg.MaxUpload <= 0 {
		return 5 << 20
	}
	return s.cfg.MaxUpload
}

// ObjectKey namespaces uploads per user and keeps the original extension.
func ObjectKey(userID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("uploads/%s/%s%s", userID, uuid.NewString(), ext)
}

func IsImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "image/")
}
