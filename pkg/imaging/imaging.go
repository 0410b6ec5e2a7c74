// pkg/imaging/imaging.go
package imaging

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
)

const octetStream = "application/octet-stream"

// ContentType keeps the declared multipart content type and falls back to
// sniffing the first 512 bytes when the client sent none.
func ContentType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != octetStream {
		return declared
	}
	return http.DetectContentType(data)
}

var formats = map[string]imaging.Format{
	"image/jpeg": imaging.JPEG,
	"image/jpg":  imaging.JPEG,
	"image/png":  imaging.PNG,
	"image/gif":  imaging.GIF,
	"image/bmp":  imaging.BMP,
	"image/tiff": imaging.TIFF,
}

// Downscale fits the image into maxDim x maxDim, keeping its format. It
// returns the input unchanged (and false) when maxDim is 0, the format is
// not one it can re-encode, or the image already fits.
func Downscale(data []byte, contentType string, maxDim int) ([]byte, bool, error) {
	if maxDim <= 0 {
		return data, false, nil
	}
	format, ok := formats[strings.ToLower(contentType)]
	if !ok {
		return data, false, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return data, false, fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return data, false, nil
	}

	resized := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(85)); err != nil {
		return data, false, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), true, nil
}
