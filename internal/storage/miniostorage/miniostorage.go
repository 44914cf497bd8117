// Package miniostorage keeps image blobs in a MinIO bucket
package miniostorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/config"
)

const defaultBucket = "images"

// Options - параметры подключения к MinIO
type Options struct {
	Endpoint string
	User     string
	Pass     string
	Bucket   string
	Secure   bool
}

// OptionsFromConfig reads MINIO_ENDPOINT, MINIO_USER, MINIO_PASS, MINIO_SECURE and BUCKET_NAME
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	opts := Options{
		Endpoint: strings.TrimSpace(cfg.GetString("MINIO_ENDPOINT")),
		User:     cfg.GetString("MINIO_USER"),
		Pass:     cfg.GetString("MINIO_PASS"),
		Bucket:   strings.TrimSpace(cfg.GetString("BUCKET_NAME")),
		Secure:   strings.EqualFold(cfg.GetString("MINIO_SECURE"), "true"),
	}
	if opts.Endpoint == "" {
		return Options{}, errors.New("MINIO_ENDPOINT is not set")
	}
	if opts.Bucket == "" {
		log.Printf("BUCKET_NAME is empty, images go to %q", defaultBucket)
		opts.Bucket = defaultBucket
	}
	return opts, nil
}

type MinioImageStorage struct {
	bucket string
	api    *minio.Client
}

// New connects and makes sure the bucket exists
func New(ctx context.Context, opts Options) (*MinioImageStorage, error) {
	api, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.User, opts.Pass, ""),
		Secure: opts.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client for %s: %w", opts.Endpoint, err)
	}

	found, err := api.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", opts.Bucket, err)
	}
	if !found {
		if err := api.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", opts.Bucket, err)
		}
	}

	return &MinioImageStorage{bucket: opts.Bucket, api: api}, nil
}

// Put - size < 0 означает неизвестный размер, minio тогда грузит частями
func (s *MinioImageStorage) Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error {
	if r == nil {
		return fmt.Errorf("put %s: nil reader", key)
	}
	if size == 0 {
		size = -1
	}

	_, err := s.api.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (s *MinioImageStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	obj, err := s.api.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", err
	}

	// GetObject ленивый: без Stat отсутствующий ключ всплывет только на первом Read
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, "", err
	}
	return obj, info.ContentType, nil
}

// Delete - MinIO не ругается на отсутствующий ключ
func (s *MinioImageStorage) Delete(ctx context.Context, key string) error {
	return s.api.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
