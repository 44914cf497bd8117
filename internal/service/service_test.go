package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"testing"

	"github.com/DavidRambo/image-microservice/internal/model"
	"github.com/stretchr/testify/require"
)

var fileNameRe = regexp.MustCompile(`^images/[0-9a-f]{16}\.jpeg$`)

func noStar(ctx context.Context, album int64) (*model.Image, error) {
	return nil, model.ErrNoStarredImage
}

// CREATE - SUCCESS, первая картинка альбома
func TestImageService_Create_FirstIsStarred(t *testing.T) {
	var putKey string
	repo := &mockRepo{
		findStarredFn: noStar,
		insertFn: func(ctx context.Context, img *model.Image) error {
			require.Equal(t, int64(3), img.Album)
			require.True(t, img.Starred)
			require.Equal(t, putKey, img.Filepath)
			img.ID = 1
			return nil
		},
	}
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			putKey = key
			require.Equal(t, "image/jpeg", ct)
			require.Equal(t, int64(3), size)
			return nil
		},
	}
	pub := &mockPublisher{}

	svc := NewImageService(repo, pub, storage, "")

	img, err := svc.Create(context.Background(), validCreateData())
	require.NoError(t, err)
	require.Equal(t, int64(1), img.ID)
	require.Regexp(t, fileNameRe, img.Filepath)
	require.Len(t, pub.events, 1)
	require.Equal(t, model.EventCreated, pub.events[0].Type)
}

// CREATE - SUCCESS, звезда в альбоме уже есть
func TestImageService_Create_SecondIsNotStarred(t *testing.T) {
	repo := &mockRepo{
		findStarredFn: func(ctx context.Context, album int64) (*model.Image, error) {
			require.Equal(t, int64(3), album)
			return &model.Image{ID: 1, Album: 3, Starred: true}, nil
		},
		insertFn: func(ctx context.Context, img *model.Image) error {
			require.False(t, img.Starred)
			img.ID = 2
			return nil
		},
	}
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error { return nil },
	}

	svc := NewImageService(repo, nil, storage, "images")

	img, err := svc.Create(context.Background(), validCreateData())
	require.NoError(t, err)
	require.False(t, img.Starred)
}

// CREATE - VALIDATION FAIL
func TestImageService_Create_InvalidInput(t *testing.T) {
	svc := NewImageService(&mockRepo{}, nil, &mockStorage{}, "")

	tests := []struct {
		name    string
		data    *model.ImageCreateData
		wantErr error
	}{
		{"text file", &model.ImageCreateData{Album: 1, File: bytes.NewReader([]byte("hi")), ContentType: "text/plain"}, model.ErrInvalidMediaType},
		{"no content type", &model.ImageCreateData{Album: 1, File: bytes.NewReader([]byte("hi"))}, model.ErrInvalidUpload},
		{"no file", &model.ImageCreateData{Album: 1, ContentType: "image/png"}, model.ErrInvalidUpload},
		{"nil data", nil, model.ErrInvalidUpload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// ни репозиторий, ни хранилище не трогаются - у моков нет функций, вызов бы запаниковал
			_, err := svc.Create(context.Background(), tt.data)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// CREATE - STORAGE PUT FAIL: строки в базе нет
func TestImageService_Create_StorageError(t *testing.T) {
	repo := &mockRepo{
		findStarredFn: noStar,
	}
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			return errors.New("disk full")
		},
	}

	svc := NewImageService(repo, nil, storage, "")

	_, err := svc.Create(context.Background(), validCreateData())
	require.ErrorIs(t, err, model.ErrStorageWrite)
}

// CREATE - DB FAIL: файл подчищается
func TestImageService_Create_DBErrorRemovesFile(t *testing.T) {
	var putKey, deletedKey string
	repo := &mockRepo{
		findStarredFn: noStar,
		insertFn: func(ctx context.Context, img *model.Image) error {
			return errors.New("db down")
		},
	}
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			putKey = key
			return nil
		},
		deleteFn: func(ctx context.Context, key string) error {
			deletedKey = key
			return nil
		},
	}

	svc := NewImageService(repo, nil, storage, "")

	_, err := svc.Create(context.Background(), validCreateData())
	require.ErrorIs(t, err, model.ErrCommon500)
	require.NotEmpty(t, putKey)
	require.Equal(t, putKey, deletedKey)
}

// CREATE - STAR LOOKUP FAIL
func TestImageService_Create_StarLookupError(t *testing.T) {
	repo := &mockRepo{
		findStarredFn: func(ctx context.Context, album int64) (*model.Image, error) {
			return nil, errors.New("db down")
		},
	}

	svc := NewImageService(repo, nil, &mockStorage{}, "")

	_, err := svc.Create(context.Background(), validCreateData())
	require.ErrorIs(t, err, model.ErrCommon500)
}

// SETSTARRED - SUCCESS: снимаем старую звезду, ставим новую, в транзакции
func TestImageService_SetStarred_OK(t *testing.T) {
	var updates []model.Image
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Image, error) {
			return &model.Image{ID: id, Album: 3}, nil
		},
		findStarredFn: func(ctx context.Context, album int64) (*model.Image, error) {
			return &model.Image{ID: 1, Album: 3, Starred: true}, nil
		},
		updateStarredFn: func(ctx context.Context, id int64, starred bool) (*model.Image, error) {
			img := model.Image{ID: id, Album: 3, Starred: starred}
			updates = append(updates, img)
			return &img, nil
		},
	}
	pub := &mockPublisher{}

	svc := NewImageService(repo, pub, &mockStorage{}, "")

	require.NoError(t, svc.SetStarred(context.Background(), 3, 2))
	require.Equal(t, 1, repo.txCalls)
	require.Equal(t, []model.Image{
		{ID: 1, Album: 3, Starred: false},
		{ID: 2, Album: 3, Starred: true},
	}, updates)
	require.Len(t, pub.events, 1)
	require.Equal(t, model.EventStarred, pub.events[0].Type)
	require.Equal(t, int64(2), pub.events[0].ImageID)
}

// SETSTARRED - в альбоме еще нет звезды
func TestImageService_SetStarred_NoPreviousStar(t *testing.T) {
	calls := 0
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Image, error) {
			return &model.Image{ID: id, Album: 3}, nil
		},
		findStarredFn: noStar,
		updateStarredFn: func(ctx context.Context, id int64, starred bool) (*model.Image, error) {
			calls++
			require.Equal(t, int64(5), id)
			require.True(t, starred)
			return &model.Image{ID: id, Album: 3, Starred: true}, nil
		},
	}

	svc := NewImageService(repo, nil, &mockStorage{}, "")

	require.NoError(t, svc.SetStarred(context.Background(), 3, 5))
	require.Equal(t, 1, calls)
}

// SETSTARRED - картинка уже звезда: снимать нечего
func TestImageService_SetStarred_AlreadyStarred(t *testing.T) {
	calls := 0
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Image, error) {
			return &model.Image{ID: id, Album: 3, Starred: true}, nil
		},
		findStarredFn: func(ctx context.Context, album int64) (*model.Image, error) {
			return &model.Image{ID: 2, Album: 3, Starred: true}, nil
		},
		updateStarredFn: func(ctx context.Context, id int64, starred bool) (*model.Image, error) {
			calls++
			require.True(t, starred)
			return &model.Image{ID: id, Album: 3, Starred: true}, nil
		},
	}

	svc := NewImageService(repo, nil, &mockStorage{}, "")

	require.NoError(t, svc.SetStarred(context.Background(), 3, 2))
	require.Equal(t, 1, calls)
}

// SETSTARRED - FAIL
func TestImageService_SetStarred_Errors(t *testing.T) {
	tests := []struct {
		name    string
		repo    *mockRepo
		wantErr error
	}{
		{
			name: "image not found",
			repo: &mockRepo{
				findByIDFn: func(ctx context.Context, id int64) (*model.Image, error) {
					return nil, model.ErrImageNotFound
				},
			},
			wantErr: model.ErrImageNotFound,
		},
		{
			name: "album mismatch",
			repo: &mockRepo{
				findByIDFn: func(ctx context.Context, id int64) (*model.Image, error) {
					return &model.Image{ID: id, Album: 4}, nil
				},
			},
			wantErr: model.ErrImageNotFound,
		},
		{
			name: "db error on update",
			repo: &mockRepo{
				findByIDFn: func(ctx context.Context, id int64) (*model.Image, error) {
					return &model.Image{ID: id, Album: 3}, nil
				},
				findStarredFn: noStar,
				updateStarredFn: func(ctx context.Context, id int64, starred bool) (*model.Image, error) {
					return nil, errors.New("db down")
				},
			},
			wantErr: model.ErrCommon500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &mockPublisher{}
			svc := NewImageService(tt.repo, pub, &mockStorage{}, "")

			err := svc.SetStarred(context.Background(), 3, 2)
			require.ErrorIs(t, err, tt.wantErr)
			require.Empty(t, pub.events)
		})
	}
}

// DELETE - SUCCESS: и строка, и файл
func TestImageService_Delete_OK(t *testing.T) {
	var removed string
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Image, error) {
			return &model.Image{ID: id, Album: 3, Filepath: "images/a.jpeg"}, nil
		},
		deleteFn: func(ctx context.Context, id int64) (bool, error) {
			return true, nil
		},
	}
	storage := &mockStorage{
		deleteFn: func(ctx context.Context, key string) error {
			removed = key
			return nil
		},
	}
	pub := &mockPublisher{}

	svc := NewImageService(repo, pub, storage, "")
	require.NoError(t, svc.Delete(context.Background(), 1))
	require.Equal(t, "images/a.jpeg", removed)
	require.Equal(t, model.EventDeleted, pub.events[0].Type)
}

// DELETE - файл не удалился, но строка удалена: запрос успешен
func TestImageService_Delete_StorageErrorIsNotFatal(t *testing.T) {
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Image, error) {
			return &model.Image{ID: id, Filepath: "images/a.jpeg"}, nil
		},
		deleteFn: func(ctx context.Context, id int64) (bool, error) { return true, nil },
	}
	storage := &mockStorage{
		deleteFn: func(ctx context.Context, key string) error { return errors.New("permission denied") },
	}

	svc := NewImageService(repo, nil, storage, "")
	require.NoError(t, svc.Delete(context.Background(), 1))
}

// DELETE - FAIL - NOT FOUND
func TestImageService_Delete_NotFound(t *testing.T) {
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Image, error) {
			return nil, model.ErrImageNotFound
		},
	}

	svc := NewImageService(repo, nil, &mockStorage{}, "")
	err := svc.Delete(context.Background(), 9)
	require.ErrorIs(t, err, model.ErrImageNotFound)
}

// DELETE - строку успели удалить между чтением и удалением
func TestImageService_Delete_Vanished(t *testing.T) {
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Image, error) {
			return &model.Image{ID: id}, nil
		},
		deleteFn: func(ctx context.Context, id int64) (bool, error) { return false, nil },
	}

	svc := NewImageService(repo, nil, &mockStorage{}, "")
	require.ErrorIs(t, svc.Delete(context.Background(), 9), model.ErrImageNotFound)
}

// GETALBUM - SUCCESS
func TestImageService_GetAlbum_OK(t *testing.T) {
	repo := &mockRepo{
		findByAlbumFn: func(ctx context.Context, album int64, limit, offset int) ([]model.Image, error) {
			require.Equal(t, model.AlbumPageSize, limit)
			require.Equal(t, 0, offset)
			return []model.Image{{ID: 1, Album: album}}, nil
		},
	}

	svc := NewImageService(repo, nil, &mockStorage{}, "")

	res, err := svc.GetAlbum(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, res, 1)
}

// GETALBUM - FAIL
func TestImageService_GetAlbum_DBError(t *testing.T) {
	repo := &mockRepo{
		findByAlbumFn: func(ctx context.Context, album int64, limit, offset int) ([]model.Image, error) {
			return nil, errors.New("db down")
		},
	}

	svc := NewImageService(repo, nil, &mockStorage{}, "")

	_, err := svc.GetAlbum(context.Background(), 3)
	require.ErrorIs(t, err, model.ErrCommon500)
}

// GETSTARRED - SUCCESS, content type из расширения
func TestImageService_GetStarred_OK(t *testing.T) {
	repo := &mockRepo{
		findStarredFn: func(ctx context.Context, album int64) (*model.Image, error) {
			return &model.Image{ID: 2, Album: album, Starred: true, Filepath: "images/0011223344556677.png"}, nil
		},
	}
	storage := &mockStorage{
		getFn: func(ctx context.Context, key string) (io.ReadCloser, string, error) {
			require.Equal(t, "images/0011223344556677.png", key)
			return io.NopCloser(bytes.NewReader([]byte("png-bytes"))), "", nil
		},
	}

	svc := NewImageService(repo, nil, storage, "")

	rc, cType, err := svc.GetStarred(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, "image/png", cType)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(data))
}

// GETSTARRED - FAIL
func TestImageService_GetStarred_None(t *testing.T) {
	repo := &mockRepo{findStarredFn: noStar}

	svc := NewImageService(repo, nil, &mockStorage{}, "")

	_, _, err := svc.GetStarred(context.Background(), 3)
	require.ErrorIs(t, err, model.ErrNoStarredImage)
}

// GETIMAGE - файл пропал с диска
func TestImageService_GetImage_StorageError(t *testing.T) {
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Image, error) {
			return &model.Image{ID: id, Filepath: "images/a.jpeg"}, nil
		},
	}
	storage := &mockStorage{
		getFn: func(ctx context.Context, key string) (io.ReadCloser, string, error) {
			return nil, "", errors.New("no such file")
		},
	}

	svc := NewImageService(repo, nil, storage, "")

	_, _, err := svc.GetImage(context.Background(), 1)
	require.ErrorIs(t, err, model.ErrCommon500)
}

// GETIMAGE - NOT FOUND
func TestImageService_GetImage_NotFound(t *testing.T) {
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Image, error) {
			return nil, model.ErrImageNotFound
		},
	}

	svc := NewImageService(repo, nil, &mockStorage{}, "")

	_, _, err := svc.GetImage(context.Background(), 1)
	require.ErrorIs(t, err, model.ErrImageNotFound)
}

// публикация события не влияет на результат операции
func TestImageService_PublishErrorIsNotFatal(t *testing.T) {
	repo := &mockRepo{
		findStarredFn: noStar,
		insertFn:      func(ctx context.Context, img *model.Image) error { return nil },
	}
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error { return nil },
	}
	pub := &mockPublisher{err: errors.New("broker down")}

	svc := NewImageService(repo, pub, storage, "")

	_, err := svc.Create(context.Background(), validCreateData())
	require.NoError(t, err)
}

func TestRandomFileName(t *testing.T) {
	a, err := randomFileName("jpeg")
	require.NoError(t, err)
	b, err := randomFileName("jpeg")
	require.NoError(t, err)

	require.Regexp(t, `^[0-9a-f]{16}\.jpeg$`, a)
	require.NotEqual(t, a, b)
}

// хелпер для генерации корректного ImageCreateData
func validCreateData() *model.ImageCreateData {
	return &model.ImageCreateData{
		Album:       3,
		File:        bytes.NewReader([]byte("jpg")),
		ContentType: "image/jpeg",
		Size:        int64(len("jpg")),
	}
}
