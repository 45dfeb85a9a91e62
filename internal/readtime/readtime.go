// Package readtime estimates how long a post takes to read.
package readtime

import (
	"regexp"
	"strings"
)

const (
	WordsPerMinute  = 200
	SecondsPerImage = 12
)

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	imagePattern = regexp.MustCompile(`(?i)<img\s[^>]*>`)
)

// Estimate returns whole minutes (truncated) for html: visible words at
// WordsPerMinute plus SecondsPerImage for every <img> tag.
func Estimate(html string) int {
	words := len(strings.Fields(tagPattern.ReplaceAllString(html, "")))
	images := len(imagePattern.FindAllStringIndex(html, -1))

	// tenths of a second keep the arithmetic exact: 60s/200 words = 3 tenths per word
	tenths := words*600/WordsPerMinute + images*SecondsPerImage*10
	return tenths / 600
}
