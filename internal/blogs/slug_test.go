package blogs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":          "hello-world",
		"  Go 1.24: what's new": "go-1-24-what-s-new",
		"---":                  "post",
		"Ünïcode Tïtle":        "n-code-t-tle",
		"trailing!!":           "trailing",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestParseTags(t *testing.T) {
	tags, featured := ParseTags(" Go, featured ,go,, Web ")
	assert.True(t, featured)
	assert.Equal(t, []string{"go", "web"}, tags)

	tags, featured = ParseTags("intro")
	assert.False(t, featured)
	assert.Equal(t, []string{"intro"}, tags)
}

func TestSlugCandidate(t *testing.T) {
	s, err := slugCandidate("x", 0)
	assert.NoError(t, err)
	assert.Equal(t, "x", s)
	s, err = slugCandidate("x", 3)
	assert.NoError(t, err)
	assert.Regexp(t, `^x-[0-9a-f]{8}$`, s)
}
