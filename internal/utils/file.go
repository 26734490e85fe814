package utils

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var imageContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

func GetFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

func IsAllowedFileType(filename string, allowedTypes []string) bool {
	ext := strings.TrimPrefix(GetFileExtension(filename), ".")

	for _, allowedType := range allowedTypes {
		if ext == allowedType {
			return true
		}
	}

	return false
}

func IsImageFile(filename string) bool {
	return IsAllowedFileType(filename, AllowedImageTypes)
}

// SniffImageType returns the content type of the leading bytes when they are an allowed image.
func SniffImageType(head []byte) (string, bool) {
	contentType := http.DetectContentType(head)
	for _, allowed := range imageContentTypes {
		if contentType == allowed {
			return contentType, true
		}
	}
	return contentType, false
}

func GetContentType(filename string) string {
	if contentType, ok := imageContentTypes[GetFileExtension(filename)]; ok {
		return contentType
	}
	return "application/octet-stream"
}

// GenerateStorageKey builds "<folder>/<owner>/<uuid><ext>".
func GenerateStorageKey(folder, owner, originalFilename string) string {
	return fmt.Sprintf("%s/%s/%s%s", folder, owner, uuid.NewString(), GetFileExtension(originalFilename))
}
