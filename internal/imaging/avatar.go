// Package imaging normalizes uploaded avatars.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

const (
	AvatarSize     = 250
	MaxAvatarBytes = 1_000_000
	// MaxAvatarPixels bounds width*height before the full decode.
	MaxAvatarPixels = 25_000_000
)

var ErrUnsupportedImage = errors.New("unsupported image")

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// AllowedAvatarExt reports whether filename ends in .jpg, .jpeg or .png.
func AllowedAvatarExt(filename string) bool {
	return allowedExt[strings.ToLower(filepath.Ext(filename))]
}

// AvatarPNG decodes a JPEG or PNG, scales it to AvatarSize x AvatarSize and
// returns it PNG-encoded.
func AvatarPNG(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxAvatarBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if len(data) > MaxAvatarBytes {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrUnsupportedImage, MaxAvatarBytes)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxAvatarPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupportedImage, cfg.Width, cfg.Height, MaxAvatarPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, AvatarSize, AvatarSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
