package services

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"raddiwala/internal/utils"
	"raddiwala/pkg/logger"
	"raddiwala/pkg/storage"
)

// FileUpload is one file received from a multipart form.
type FileUpload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// checkImage verifies the extension, size and leading bytes of an upload and
// returns its content type with a reader positioned at the start of the file.
func checkImage(upload *FileUpload, maxSize int64) (string, io.Reader, error) {
	if !utils.IsImageFile(upload.Filename) {
		return "", nil, invalidField("photos", fmt.Sprintf("%s: only image files are allowed", upload.Filename))
	}
	if upload.Size > maxSize {
		return "", nil, invalidField("photos", fmt.Sprintf("%s: file exceeds %d MB", upload.Filename, maxSize/(1024*1024)))
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(upload.Reader, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]

	contentType, ok := utils.SniffImageType(head)
	if !ok {
		return "", nil, invalidField("photos", fmt.Sprintf("%s: only image files are allowed", upload.Filename))
	}
	return contentType, io.MultiReader(bytes.NewReader(head), upload.Reader), nil
}

// storedFiles tracks what an operation uploaded so it can be rolled back.
type storedFiles struct {
	storage storage.StorageProvider
	logger  *logger.Logger
	keys    []string
}

func (f *storedFiles) upload(ctx context.Context, request *storage.UploadRequest) (*storage.UploadResponse, error) {
	resp, err := f.storage.Upload(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", request.Key, err)
	}
	f.keys = append(f.keys, resp.Key)
	return resp, nil
}

// rollback deletes every stored file. Cleanup uses a fresh context so a
// cancelled request still removes its files.
func (f *storedFiles) rollback() {
	ctx := context.Background()
	for _, key := range f.keys {
		if err := f.storage.Delete(ctx, key); err != nil {
			f.logger.WithError(err).WithField("key", key).Warn("Failed to delete stored file")
		}
	}
	f.keys = nil
}
