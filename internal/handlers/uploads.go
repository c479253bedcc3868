package handlers

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/bharatabhiyan/marketplace-backend/internal/config"
)

// allowedUploadExtensions lists the document formats accepted for uploads
var allowedUploadExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
	".webp": true,
}

// saveUpload stores a multipart file under the uploads directory with a
// random name and returns the relative serving path. A missing optional file
// returns ("", nil).
func saveUpload(c *gin.Context, cfg *config.UploadConfig, field string, required bool) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		if required {
			return "", fmt.Errorf("%s file is required", field)
		}
		return "", nil
	}
	return storeUploadFile(c, cfg, file, field)
}

func storeUploadFile(c *gin.Context, cfg *config.UploadConfig, file *multipart.FileHeader, field string) (string, error) {
	if file.Size > cfg.MaxSizeMB*1024*1024 {
		return "", fmt.Errorf("%s exceeds the %dMB size limit", field, cfg.MaxSizeMB)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedUploadExtensions[ext] {
		return "", fmt.Errorf("%s has an unsupported file type", field)
	}

	name := uuid.New().String() + ext
	dst := filepath.Join(cfg.Dir, name)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", field, err)
	}

	return cfg.ServePrefix + "/" + name, nil
}
