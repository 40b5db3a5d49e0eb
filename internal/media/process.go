package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"
)

// MaxUploadBytes is the publish target's media size limit.
const MaxUploadBytes = 15 * 1024 * 1024

// Normalize makes a downloaded image ready for upload: webp is re-encoded
// as jpeg, and anything over the size cap is compressed (and downscaled when
// far over) until it fits. Best-effort: on any failure the original path is
// returned and the caller uploads what it has.
func Normalize(path string) string {
	out := path
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		converted, err := webpToJPEG(path)
		if err != nil {
			slog.Error("media: webp conversion failed", "src", path, "error", err)
		} else {
			out = converted
		}
	}
	shrunk, err := shrinkToFit(out, MaxUploadBytes)
	if err != nil {
		slog.Error("media: shrink failed", "src", out, "error", err)
		return out
	}
	return shrunk
}

func webpToJPEG(src string) (string, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode webp: %w", err)
	}
	dest := strings.TrimSuffix(src, filepath.Ext(src)) + ".jpg"
	if err := writeJPEG(dest, img, 90); err != nil {
		return "", err
	}
	return dest, nil
}

// shrinkToFit re-encodes the image at stepped-down jpeg quality until it is
// under maxBytes, downscaling proportionally while the file is far over the
// cap. Quality bottoms out at 10.
func shrinkToFit(path string, maxBytes int64) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() <= maxBytes {
		return path, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	quality := 95
	size := info.Size()
	for {
		quality -= 10
		if quality < 10 {
			quality = 10
		}
		if size > maxBytes*2 {
			img = scaleDown(img, 0.9)
		}
		if err := writeJPEG(path, img, quality); err != nil {
			return "", err
		}
		info, err = os.Stat(path)
		if err != nil {
			return "", err
		}
		size = info.Size()
		if quality == 10 || size <= maxBytes {
			break
		}
	}
	slog.Info("media: image shrunk to fit", "file", path, "size_bytes", size, "quality", quality)
	return path, nil
}

func scaleDown(img image.Image, factor float64) image.Image {
	b := img.Bounds()
	w := int(float64(b.Dx()) * factor)
	h := int(float64(b.Dy()) * factor)
	if w < 1 || h < 1 {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func writeJPEG(path string, img image.Image, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := jpeg.Encode(f, toOpaque(img), &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return nil
}

// toOpaque flattens any alpha channel; jpeg has none.
func toOpaque(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}
