package service

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/DavidRambo/image-microservice/internal/model"
)

// validateUpload - файл обязателен, media type должен начинаться с image
func validateUpload(raw *model.ImageCreateData) (string, error) {
	if raw == nil || raw.File == nil {
		return "", model.ErrInvalidUpload
	}
	return model.ExtensionFromMediaType(raw.ContentType)
}

// randomFileName - 8 случайных байт в hex (16 символов) + расширение; на коллизии не проверяем
func randomFileName(ext string) (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf) + "." + ext, nil
}
