package utils

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	_ "image/gif"

	"github.com/nfnt/resize"
)

var ErrUnsupportedImage = errors.New("unsupported image format")

// ResizeImage decodes r and scales it to fit within maxWidth x maxHeight,
// keeping the aspect ratio. Images already inside the box are returned as is.
func ResizeImage(r io.Reader, maxWidth, maxHeight uint) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", err
	}

	bounds := img.Bounds()
	width := uint(bounds.Dx())
	height := uint(bounds.Dy())

	if width <= maxWidth && height <= maxHeight {
		return img, format, nil
	}

	return resize.Thumbnail(maxWidth, maxHeight, img, resize.Lanczos3), format, nil
}

func EncodeImage(img image.Image, format string, writer io.Writer, quality int) error {
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		return jpeg.Encode(writer, img, &jpeg.Options{Quality: quality})
	case "png", "gif":
		return png.Encode(writer, img)
	default:
		return ErrUnsupportedImage
	}
}

// PrepareProfilePicture shrinks a picture for profile use and re-encodes it.
// It returns the encoded bytes with their content type and file extension.
func PrepareProfilePicture(r io.Reader) ([]byte, string, string, error) {
	img, format, err := ResizeImage(r, ProfilePictureMaxSide, ProfilePictureMaxSide)
	if err != nil {
		return nil, "", "", err
	}

	var buf bytes.Buffer
	if format == "png" || format == "gif" {
		if err := EncodeImage(img, "png", &buf, 0); err != nil {
			return nil, "", "", err
		}
		return buf.Bytes(), "image/png", ".png", nil
	}

	if err := EncodeImage(img, "jpeg", &buf, 85); err != nil {
		return nil, "", "", err
	}
	return buf.Bytes(), "image/jpeg", ".jpg", nil
}
