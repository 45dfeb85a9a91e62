package blogs

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/inkbloom/inkbloom/internal/apperr"
	"github.com/inkbloom/inkbloom/internal/storage"
)

var dataURIPattern = regexp.MustCompile(`src="data:image/([a-zA-Z0-9.+-]+);base64,([^"]+)"`)

type inlineImage struct {
	match       string
	ext         string
	contentType string
	data        []byte
}

func extensionFor(subtype string) string {
	switch strings.ToLower(subtype) {
	case "jpeg", "pjpeg":
		return "jpg"
	case "svg+xml":
		return "svg"
	}
	return strings.ToLower(subtype)
}

// mediaPath names objects by content hash so re-uploads of the same picture
// land on the same key.
func mediaPath(data []byte, ext string) string {
	sum := sha256.Sum256(data)
	return "blogs/media/" + hex.EncodeToString(sum[:])[:16] + "." + ext
}

// extractInlineImages decodes every distinct base64 image in html.
func extractInlineImages(html string) ([]inlineImage, error) {
	seen := map[string]bool{}
	var out []inlineImage
	for _, m := range dataURIPattern.FindAllStringSubmatch(html, -1) {
		if seen[m[0]] {
			continue
		}
		seen[m[0]] = true
		data, err := base64.StdEncoding.DecodeString(m[2])
		if err != nil {
			return nil, apperr.Validation("Invalid inline image!")
		}
		out = append(out, inlineImage{
			match:       m[0],
			ext:         extensionFor(m[1]),
			contentType: "image/" + strings.ToLower(m[1]),
			data:        data,
		})
	}
	return out, nil
}

// rewriteInlineImages uploads every embedded image and returns html with the
// data URIs replaced by proxied CDN URLs. Nothing is rewritten unless every
// upload succeeded.
func rewriteInlineImages(ctx context.Context, up storage.Uploader, proxyBase, html string) (string, error) {
	images, err := extractInlineImages(html)
	if err != nil {
		return "", err
	}
	replacements := make([]string, 0, len(images)*2)
	for _, img := range images {
		url, err := up.Upload(ctx, mediaPath(img.data, img.ext), img.data, img.contentType)
		if err != nil {
			return "", apperr.Upstream("Failed to upload image!", fmt.Errorf("inline image: %w", err))
		}
		replacements = append(replacements, img.match, `src="`+storage.ProxyURL(proxyBase, url)+`"`)
	}
	if len(replacements) == 0 {
		return html, nil
	}
	return strings.NewReplacer(replacements...).Replace(html), nil
}
