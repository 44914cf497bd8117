package transport

import (
	"errors"
	"io"
	"log"
	"strconv"

	"github.com/DavidRambo/image-microservice/internal/model"
)

func errorCodeDefiner(err error) int {
	switch {
	case errors.Is(err, model.ErrCommon500),
		errors.Is(err, model.ErrStorageWrite):
		return 500
	case errors.Is(err, model.ErrImageNotFound),
		errors.Is(err, model.ErrNoStarredImage):
		return 404
	case errors.Is(err, model.ErrInvalidMediaType):
		return 406
	case errors.Is(err, model.ErrIncorrectID),
		errors.Is(err, model.ErrInvalidUpload):
		return 400
	default:
		return 500
	}
}

// parseID - целые id из пути и query; все остальное ErrIncorrectID
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, model.ErrIncorrectID
	}
	return id, nil
}

func closeFileFlow(res io.ReadCloser) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		log.Println("Handler failed to close fileflow:", err)
	}
}
