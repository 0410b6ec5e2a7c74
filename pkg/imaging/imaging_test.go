package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func makePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestContentType(t *testing.T) {
	data := makePNG(t, 4, 4)
	if got := ContentType("image/webp", data); got != "image/webp" {
		t.Fatalf("expected declared type, got %q", got)
	}
	if got := ContentType("", data); got != "image/png" {
		t.Fatalf("expected sniffed png, got %q", got)
	}
	if got := ContentType("application/octet-stream", data); got != "image/png" {
		t.Fatalf("expected sniffed png, got %q", got)
	}
}

func TestDownscale_FitsLargeImage(t *testing.T) {
	data := makePNG(t, 400, 200)

	out, changed, err := Downscale(data, "image/png", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Fatal("expected image to be resized")
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("expected 100x50, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestDownscale_LeavesInputAlone(t *testing.T) {
	small := makePNG(t, 50, 50)

	cases := []struct {
		name        string
		data        []byte
		contentType string
		maxDim      int
	}{
		{"disabled", small, "image/png", 0},
		{"already fits", small, "image/png", 100},
		{"unsupported format", []byte("RIFF....WEBP"), "image/webp", 100},
	}
	for _, tc := range cases {
		out, changed, err := Downscale(tc.data, tc.contentType, tc.maxDim)
		if err != nil || changed || !bytes.Equal(out, tc.data) {
			t.Errorf("%s: expected untouched input, changed=%v err=%v", tc.name, changed, err)
		}
	}
}

func TestDownscale_UndecodableReturnsOriginal(t *testing.T) {
	data := []byte("definitely not a jpeg")
	out, changed, err := Downscale(data, "image/jpeg", 100)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if changed || !bytes.Equal(out, data) {
		t.Fatal("expected original bytes back")
	}
}
