// Package storage picks the blob backend for image files
package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/DavidRambo/image-microservice/internal/storage/localstorage"
	"github.com/DavidRambo/image-microservice/internal/storage/miniostorage"
	"github.com/wb-go/wbf/config"
)

const (
	BackendLocal = "local"
	BackendMinio = "minio"
)

type ImageStorage interface {
	Delete(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (output io.ReadCloser, ctype string, err error)
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
}

// NewImgStorage - STORAGE_BACKEND=local (по умолчанию) или minio.
// До MinIO стучимся до победного, как и раньше.
func NewImgStorage(cfg *config.Config, delay time.Duration) (ImageStorage, error) {
	switch backend := cfg.GetString("STORAGE_BACKEND"); backend {
	case "", BackendLocal:
		local, err := localstorage.NewLocalStorage(cfg.GetString("STORAGE_ROOT"))
		if err != nil {
			return nil, err
		}
		return local, nil
	case BackendMinio:
		opts, err := miniostorage.OptionsFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		return connectMinio(opts, delay), nil
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", backend)
	}
}

func connectMinio(opts miniostorage.Options, delay time.Duration) *miniostorage.MinioImageStorage {
	for {
		log.Println("Connecting to IMG-storage...")
		client, err := miniostorage.New(context.Background(), opts)
		if err != nil {
			log.Printf("Failed to init connection to IMG-storage: %v\nNext retry in %v...", err, delay)
			time.Sleep(delay)
			continue
		}
		log.Println("Successfully connected IMG-storage!")
		return client
	}
}
