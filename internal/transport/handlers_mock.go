package transport

import (
	"context"
	"io"

	"github.com/DavidRambo/image-microservice/internal/model"
	"github.com/gin-gonic/gin"
)

type mockImageService struct {
	createFn     func(ctx context.Context, d *model.ImageCreateData) (*model.Image, error)
	deleteFn     func(ctx context.Context, id int64) error
	getAlbumFn   func(ctx context.Context, album int64) ([]model.Image, error)
	getStarredFn func(ctx context.Context, album int64) (io.ReadCloser, string, error)
	getImageFn   func(ctx context.Context, id int64) (io.ReadCloser, string, error)
	setStarredFn func(ctx context.Context, album, imageID int64) error
}

func (m *mockImageService) Create(ctx context.Context, d *model.ImageCreateData) (*model.Image, error) {
	return m.createFn(ctx, d)
}

func (m *mockImageService) Delete(ctx context.Context, id int64) error {
	return m.deleteFn(ctx, id)
}

func (m *mockImageService) GetAlbum(ctx context.Context, album int64) ([]model.Image, error) {
	return m.getAlbumFn(ctx, album)
}

func (m *mockImageService) GetStarred(ctx context.Context, album int64) (io.ReadCloser, string, error) {
	return m.getStarredFn(ctx, album)
}

func (m *mockImageService) GetImage(ctx context.Context, id int64) (io.ReadCloser, string, error) {
	return m.getImageFn(ctx, id)
}

func (m *mockImageService) SetStarred(ctx context.Context, album, imageID int64) error {
	return m.setStarredFn(ctx, album, imageID)
}

func init() {
	gin.SetMode(gin.TestMode)
}
