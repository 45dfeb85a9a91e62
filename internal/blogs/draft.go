package blogs

import (
	"strings"

	"github.com/inkbloom/inkbloom/internal/apperr"
	"github.com/inkbloom/inkbloom/internal/models"
)

// FeaturedTag marks a post for the front page. It is never stored as a tag.
const FeaturedTag = "featured"

// Draft is the submitted create/edit form.
type Draft struct {
	Title      string
	Summary    string
	Content    string
	Tags       string // comma-separated
	Category   string
	Visibility string
	Cover      []byte // nil when no file was sent
}

// validate checks required fields in form order. The cover is only required
// when creating.
func (d *Draft) validate(requireCover bool) error {
	d.Title = strings.TrimSpace(d.Title)
	d.Summary = strings.TrimSpace(d.Summary)
	d.Visibility = strings.ToLower(strings.TrimSpace(d.Visibility))
	d.Category = strings.ToLower(strings.TrimSpace(d.Category))

	var missing []string
	if d.Title == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(d.Tags) == "" {
		missing = append(missing, "tags")
	}
	if d.Visibility == "" {
		missing = append(missing, "visibility")
	}
	if strings.TrimSpace(d.Content) == "" {
		missing = append(missing, "content")
	}
	if requireCover && len(d.Cover) == 0 {
		missing = append(missing, "cover_image")
	}
	if len(missing) > 0 {
		return apperr.MissingFields(missing...)
	}
	if d.Visibility != models.VisibilityPublic && d.Visibility != models.VisibilityPrivate {
		return apperr.Validation("Visibility must be either public or private!")
	}
	if d.Category == "" {
		d.Category = models.DefaultCategory
	}
	return nil
}

// ParseTags lower-cases, trims and de-duplicates a comma-separated tag list.
// The featured tag is removed and reported separately.
func ParseTags(raw string) (tags []string, featured bool) {
	seen := map[string]bool{}
	tags = []string{}
	for _, t := range strings.Split(raw, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		if t == FeaturedTag {
			featured = true
			continue
		}
		tags = append(tags, t)
	}
	return tags, featured
}
