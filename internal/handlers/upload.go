package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thereayou/vidtube/internal/apperrors"
)

// saveUpload сохраняет файл из multipart-поля во временный каталог.
// Отсутствие поля не ошибка: возвращается пустой путь.
func saveUpload(c *gin.Context, uploadDir, field string) (string, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.Validation("invalid "+field+" upload", err.Error())
	}

	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return "", apperrors.Internal("cannot prepare upload directory", err)
	}

	path := filepath.Join(uploadDir, uuid.NewString()+strings.ToLower(filepath.Ext(header.Filename)))
	if err := c.SaveUploadedFile(header, path); err != nil {
		return "", apperrors.Internal("cannot store upload", err)
	}
	return path, nil
}

// removeTemp убирает временные файлы, если media store их не забрал
func removeTemp(paths ...string) {
	for _, p := range paths {
		if p != "" {
			_ = os.Remove(p)
		}
	}
}
