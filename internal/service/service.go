// Package service provides business-logic for the app
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/DavidRambo/image-microservice/internal/model"
	"github.com/DavidRambo/image-microservice/internal/mwlogger"
	"github.com/DavidRambo/image-microservice/internal/repository"
)

const defaultImagesDir = "images"

type ImageService struct {
	repo      repository.ImageRepo
	publisher EventPublisher
	storage   ImageStorage
	imagesDir string
	newName   func(ext string) (string, error)
}

func NewImageService(imageRepo repository.ImageRepo, pub EventPublisher, strg ImageStorage, imagesDir string) *ImageService {
	if imagesDir == "" {
		imagesDir = defaultImagesDir
	}
	return &ImageService{
		repo:      imageRepo,
		publisher: pub,
		storage:   strg,
		imagesDir: imagesDir,
		newName:   randomFileName,
	}
}

// EventPublisher - контракт для работы с очередью событий
type EventPublisher interface {
	Publish(ctx context.Context, ev model.ImageEvent) error
}

// ImageStorage - контракт для работы с хранилищем
type ImageStorage interface {
	Delete(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (output io.ReadCloser, ctype string, err error)
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
}

func (c ImageService) Create(ctx context.Context, imageData *model.ImageCreateData) (*model.Image, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	// валидируем загрузку и выводим расширение из media type
	ext, err := validateUpload(imageData)
	if err != nil {
		return nil, err
	}

	fileName, err := c.newName(ext)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate file name")
		return nil, model.ErrCommon500
	}

	// первая картинка альбома становится звездой
	starred, err := c.albumHasNoStar(ctx, imageData.Album)
	if err != nil {
		logger.Error().Err(err).Int64("album", imageData.Album).Msg("Failed to look up starred image in DB")
		return nil, model.ErrCommon500
	}

	newImage := &model.Image{
		Album:    imageData.Album,
		Starred:  starred,
		Filepath: path.Join(c.imagesDir, fileName),
	}

	// сначала файл, потом строка в базе - чтобы строка никогда не указывала в пустоту
	if err := c.storage.Put(ctx, newImage.Filepath, imageData.Size, imageData.ContentType, imageData.File); err != nil {
		logger.Error().Err(err).Str("filepath", newImage.Filepath).Msg("Failed to save image in Storage")
		return nil, model.ErrStorageWrite
	}

	if err := c.repo.Insert(ctx, newImage); err != nil {
		logger.Error().Err(err).Msg("Failed to create image in DB")
		if delErr := c.storage.Delete(ctx, newImage.Filepath); delErr != nil {
			logger.Warn().Err(delErr).Str("filepath", newImage.Filepath).Msg("Failed to clean up file after DB error")
		}
		return nil, model.ErrCommon500
	}

	c.publish(ctx, model.EventCreated, newImage)
	return newImage, nil
}

func (c ImageService) albumHasNoStar(ctx context.Context, album int64) (bool, error) {
	_, err := c.repo.FindStarredByAlbum(ctx, album)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, model.ErrNoStarredImage):
		return true, nil
	default:
		return false, err
	}
}

// SetStarred - снять звезду с текущей картинки альбома и поставить на imageID; все в одной транзакции
func (c ImageService) SetStarred(ctx context.Context, album, imageID int64) error {
	logger := mwlogger.LoggerFromContext(ctx)

	var starred *model.Image
	err := c.repo.WithinTx(ctx, func(ctx context.Context) error {
		target, err := c.repo.FindByID(ctx, imageID)
		if err != nil {
			return err
		}
		if target.Album != album {
			return model.ErrImageNotFound
		}

		prev, err := c.repo.FindStarredByAlbum(ctx, album)
		switch {
		case errors.Is(err, model.ErrNoStarredImage):
		case err != nil:
			return err
		case prev.ID != target.ID:
			if _, err := c.repo.UpdateStarred(ctx, prev.ID, false); err != nil {
				return fmt.Errorf("unstar image %d: %w", prev.ID, err)
			}
		}

		starred, err = c.repo.UpdateStarred(ctx, target.ID, true)
		return err
	})
	if err != nil {
		if errors.Is(err, model.ErrImageNotFound) {
			return model.ErrImageNotFound // 404
		}
		logger.Error().Err(err).Int64("album", album).Int64("image_id", imageID).Msg("Failed to star image in DB")
		return model.ErrCommon500
	}

	c.publish(ctx, model.EventStarred, starred)
	return nil
}

func (c ImageService) Delete(ctx context.Context, id int64) error {
	logger := mwlogger.LoggerFromContext(ctx)

	// читаем из базы - нужен путь к файлу
	res, err := c.repo.FindByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrImageNotFound):
			return model.ErrImageNotFound // 404
		default:
			logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch image %d from DB", id))
			return model.ErrCommon500
		}
	}

	// удаляем из базы
	deleted, err := c.repo.Delete(ctx, id)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to delete image from DB")
		return model.ErrCommon500
	}
	if !deleted {
		return model.ErrImageNotFound
	}

	// удаляем файл; строки уже нет, так что неудача здесь - только предупреждение
	if err := c.storage.Delete(ctx, res.Filepath); err != nil {
		logger.Warn().Err(err).Str("filepath", res.Filepath).Msg("Failed to delete image file from Storage")
	}

	c.publish(ctx, model.EventDeleted, res)
	return nil
}

func (c ImageService) GetAlbum(ctx context.Context, album int64) ([]model.Image, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	res, err := c.repo.FindByAlbum(ctx, album, model.AlbumPageSize, 0)
	if err != nil {
		logger.Error().Err(err).Int64("album", album).Msg("Failed to fetch album images from DB")
		return nil, model.ErrCommon500
	}

	return res, nil
}

func (c ImageService) GetStarred(ctx context.Context, album int64) (io.ReadCloser, string, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	res, err := c.repo.FindStarredByAlbum(ctx, album)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNoStarredImage):
			return nil, "", model.ErrNoStarredImage // 404
		default:
			logger.Error().Err(err).Int64("album", album).Msg("Failed to fetch starred image from DB")
			return nil, "", model.ErrCommon500
		}
	}

	return c.open(ctx, res)
}

func (c ImageService) GetImage(ctx context.Context, id int64) (io.ReadCloser, string, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	res, err := c.repo.FindByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrImageNotFound):
			return nil, "", model.ErrImageNotFound // 404
		default:
			logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch image %d from DB", id))
			return nil, "", model.ErrCommon500
		}
	}

	return c.open(ctx, res)
}

func (c ImageService) open(ctx context.Context, img *model.Image) (io.ReadCloser, string, error) {
	// достаем из хранилища
	data, _, err := c.storage.Get(ctx, img.Filepath)
	if err != nil {
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Error().Err(err).Str("filepath", img.Filepath).Msg(fmt.Sprintf("Failed to fetch image %d from Storage", img.ID))
		return nil, "", model.ErrCommon500
	}
	return data, model.MediaTypeFromPath(img.Filepath), nil
}

func (c ImageService) publish(ctx context.Context, t model.EventType, img *model.Image) {
	if c.publisher == nil || img == nil {
		return
	}

	ev := model.ImageEvent{Type: t, ImageID: img.ID, Album: img.Album, Starred: img.Starred}
	if err := c.publisher.Publish(ctx, ev); err != nil {
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Warn().Err(err).Str("event", string(t)).Int64("image_id", img.ID).Msg("Failed to publish image event")
	}
}
