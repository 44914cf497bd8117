// Package model provides data-structs for internal app-usage
package model

import (
	"errors"
	"io"
	"mime"
	"path"
	"strings"
)

// AlbumPageSize - сколько картинок альбома отдается за один запрос
const AlbumPageSize = 10

type Image struct {
	ID       int64  `json:"id"`
	Album    int64  `json:"album"`
	Starred  bool   `json:"starred"`
	Filepath string `json:"-"`
}

// ImagePublic - то, что видит клиент: без пути к файлу
type ImagePublic struct {
	ID      int64 `json:"id"`
	Album   int64 `json:"album"`
	Starred bool  `json:"starred"`
}

func (i Image) Public() ImagePublic {
	return ImagePublic{ID: i.ID, Album: i.Album, Starred: i.Starred}
}

func ToPublic(images []Image) []ImagePublic {
	res := make([]ImagePublic, 0, len(images))
	for _, img := range images {
		res = append(res, img.Public())
	}
	return res
}

//-------------------

type ImageCreateData struct {
	Album       int64
	File        io.Reader
	ContentType string
	Size        int64
}

//-------------------

type EventType string

const (
	EventCreated EventType = "image.created"
	EventDeleted EventType = "image.deleted"
	EventStarred EventType = "image.starred"
)

type ImageEvent struct {
	Type    EventType `json:"type"`
	ImageID int64     `json:"image_id"`
	Album   int64     `json:"album"`
	Starred bool      `json:"starred"`
	At      int64     `json:"at"`
}

// ------------------

var (
	ErrCommon500        error = errors.New("something went wrong. Try again later") // 500
	ErrInvalidMediaType error = errors.New("invalid file type")                     // 406
	ErrInvalidUpload    error = errors.New("invalid upload")                        // 400
	ErrIncorrectID      error = errors.New("incorrect id")                          // 400
	ErrImageNotFound    error = errors.New("image not found")                       // 404
	ErrNoStarredImage   error = errors.New("no starred image found")                // 404
	ErrStorageWrite     error = errors.New("failed to store image file")            // 500
)

//--------------------

// ExtensionFromMediaType returns the subtype of an image media type ("image/jpeg" -> "jpeg").
func ExtensionFromMediaType(contentType string) (string, error) {
	if strings.TrimSpace(contentType) == "" {
		return "", ErrInvalidUpload
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", ErrInvalidUpload
	}
	if !strings.HasPrefix(mediaType, "image") {
		return "", ErrInvalidMediaType
	}

	_, subtype, ok := strings.Cut(mediaType, "/")
	if !ok || subtype == "" {
		return "", ErrInvalidUpload
	}
	return subtype, nil
}

// MediaTypeFromPath rebuilds the media type from the stored file extension.
func MediaTypeFromPath(p string) string {
	ext := strings.TrimPrefix(path.Ext(p), ".")
	return "image/" + ext
}
