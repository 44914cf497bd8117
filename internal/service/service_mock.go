package service

import (
	"context"
	"io"

	"github.com/DavidRambo/image-microservice/internal/model"
)

// MOCK RESPOSITORY

type mockRepo struct {
	insertFn        func(ctx context.Context, img *model.Image) error
	findByIDFn      func(ctx context.Context, id int64) (*model.Image, error)
	findStarredFn   func(ctx context.Context, album int64) (*model.Image, error)
	findByAlbumFn   func(ctx context.Context, album int64, limit, offset int) ([]model.Image, error)
	deleteFn        func(ctx context.Context, id int64) (bool, error)
	updateStarredFn func(ctx context.Context, id int64, starred bool) (*model.Image, error)
	txCalls         int
}

func (m *mockRepo) Insert(ctx context.Context, img *model.Image) error {
	return m.insertFn(ctx, img)
}

func (m *mockRepo) FindByID(ctx context.Context, id int64) (*model.Image, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockRepo) FindStarredByAlbum(ctx context.Context, album int64) (*model.Image, error) {
	return m.findStarredFn(ctx, album)
}

func (m *mockRepo) FindByAlbum(ctx context.Context, album int64, limit, offset int) ([]model.Image, error) {
	return m.findByAlbumFn(ctx, album, limit, offset)
}

func (m *mockRepo) Delete(ctx context.Context, id int64) (bool, error) {
	return m.deleteFn(ctx, id)
}

func (m *mockRepo) UpdateStarred(ctx context.Context, id int64, starred bool) (*model.Image, error) {
	return m.updateStarredFn(ctx, id, starred)
}

func (m *mockRepo) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txCalls++
	return fn(ctx)
}

// MOCK STORAGE

type mockStorage struct {
	putFn    func(ctx context.Context, key string, size int64, ct string, r io.Reader) error
	getFn    func(ctx context.Context, key string) (io.ReadCloser, string, error)
	deleteFn func(ctx context.Context, key string) error
}

func (m *mockStorage) Put(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
	return m.putFn(ctx, key, size, ct, r)
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return m.getFn(ctx, key)
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	return m.deleteFn(ctx, key)
}

// MOCK PUBLISHER

type mockPublisher struct {
	events []model.ImageEvent
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, ev model.ImageEvent) error {
	m.events = append(m.events, ev)
	return m.err
}
