package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/url"
	"strings"

	"golang.org/x/image/draw"
)

const (
	DefaultCoverMaxWidth = 1600
	jpegQuality          = 85
	maxCoverBytes        = 10 << 20
	maxCoverPixels       = 40_000_000
)

var ErrInvalidImage = errors.New("storage: invalid image")

// NormalizeCover decodes a png/jpeg/gif cover, scales it down to maxWidth
// and re-encodes it as JPEG on a white background. Images declaring more
// than maxCoverPixels are rejected before any pixel data is decoded.
func NormalizeCover(src io.Reader, maxWidth int) ([]byte, error) {
	if maxWidth <= 0 {
		maxWidth = DefaultCoverMaxWidth
	}
	raw, err := io.ReadAll(io.LimitReader(src, maxCoverBytes))
	if err != nil {
		return nil, fmt.Errorf("read cover: %w", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxCoverPixels {
		return nil, fmt.Errorf("%w: %dx%d is too large", ErrInvalidImage, cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxWidth {
		h = h * maxWidth / w
		w = maxWidth
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if w == bounds.Dx() {
		draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// ProxyURL rewrites assetURL through the image proxy with fixed transform
// parameters (webp, quality 80, 30 day cache).
func ProxyURL(proxyBase, assetURL string) string {
	base := proxyBase
	if !strings.Contains(base, "?") {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		base += "?"
	} else {
		base += "&"
	}
	return base + "url=" + url.QueryEscape(assetURL) + "&output=webp&quality=80&q=80&maxage=30d"
}
