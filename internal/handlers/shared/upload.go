package handlers

import (
	"io"
	"mime/multipart"

	"raddiwala/internal/services"
)

// openUploads opens every file header. The returned closer must be called
// once the service is done reading.
func openUploads(headers []*multipart.FileHeader) ([]*services.FileUpload, func(), error) {
	uploads := make([]*services.FileUpload, 0, len(headers))
	files := make([]io.Closer, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		files = append(files, file)
		uploads = append(uploads, &services.FileUpload{
			Filename: header.Filename,
			Size:     header.Size,
			Reader:   file,
		})
	}
	return uploads, closeAll, nil
}
