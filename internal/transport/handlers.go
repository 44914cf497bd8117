// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"io"

	"github.com/DavidRambo/image-microservice/internal/model"
	"github.com/DavidRambo/image-microservice/internal/mwlogger"
	"github.com/wb-go/wbf/ginext"
)

// uploadField - имя поля multipart-формы с картинкой
const uploadField = "img_upload"

type ImageHandler struct {
	service ImageService
}

type ImageService interface {
	Create(ctx context.Context, newImage *model.ImageCreateData) (*model.Image, error)
	Delete(ctx context.Context, id int64) error // удалить и строку, и файл
	GetAlbum(ctx context.Context, album int64) ([]model.Image, error)
	GetStarred(ctx context.Context, album int64) (io.ReadCloser, string, error)
	GetImage(ctx context.Context, id int64) (io.ReadCloser, string, error)
	SetStarred(ctx context.Context, album, imageID int64) error
}

func NewImageHandler(svc ImageService) *ImageHandler {
	return &ImageHandler{
		service: svc,
	}
}

func (h ImageHandler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

func (h ImageHandler) Create(ctx *ginext.Context) {
	album, err := parseID(ctx.Param("album_id"))
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	imageFile, imageHeader, err := ctx.Request.FormFile(uploadField)
	if err != nil {
		ctx.JSON(400, map[string]string{"error": uploadField + " is required"})
		return
	}
	defer closeFileFlow(imageFile)

	newImageRaw := model.ImageCreateData{
		Album:       album,
		File:        imageFile,
		ContentType: imageHeader.Header.Get("Content-Type"),
		Size:        imageHeader.Size,
	}

	res, err := h.service.Create(ctx.Request.Context(), &newImageRaw)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res.Public())
}

func (h ImageHandler) GetAlbum(ctx *ginext.Context) {
	album, err := parseID(ctx.Param("album_id"))
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	res, err := h.service.GetAlbum(ctx.Request.Context(), album)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, model.ToPublic(res))
}

func (h ImageHandler) GetStarred(ctx *ginext.Context) {
	album, err := parseID(ctx.Param("album_id"))
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	res, cType, err := h.service.GetStarred(ctx.Request.Context(), album)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	streamImage(ctx, res, cType)
}

func (h ImageHandler) SetStarred(ctx *ginext.Context) {
	album, err := parseID(ctx.Param("album_id"))
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}
	imageID, err := parseID(ctx.Query("image_id"))
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	if err := h.service.SetStarred(ctx.Request.Context(), album, imageID); err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.Status(200)
}

func (h ImageHandler) GetImage(ctx *ginext.Context) {
	id, err := parseID(ctx.Param("image_id"))
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	res, cType, err := h.service.GetImage(ctx.Request.Context(), id)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	streamImage(ctx, res, cType)
}

func (h ImageHandler) Delete(ctx *ginext.Context) {
	id, err := parseID(ctx.Param("image_id"))
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	if err := h.service.Delete(ctx.Request.Context(), id); err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, map[string]bool{"ok": true})
}

func streamImage(ctx *ginext.Context, res io.ReadCloser, cType string) {
	defer closeFileFlow(res)

	ctx.Writer.Header().Set("Content-Type", cType)
	ctx.Writer.WriteHeader(200)
	if n, err := io.Copy(ctx.Writer, res); err != nil {
		logger := mwlogger.LoggerFromContext(ctx.Request.Context())
		logger.Warn().Err(err).Int64("written", n).Msg("Failed to write image to response")
	}
}
