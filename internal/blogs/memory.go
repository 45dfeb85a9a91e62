package blogs

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/inkbloom/inkbloom/internal/content"
	"github.com/inkbloom/inkbloom/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-process Store used by tests. Blogs are kept in
// insertion order, which stands in for _id order.
type MemoryStore struct {
	mu    sync.RWMutex
	blogs []*models.Blog
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) find(pred func(*models.Blog) bool) (int, *models.Blog) {
	for i, b := range m.blogs {
		if pred(b) {
			return i, b
		}
	}
	return -1, nil
}

func (m *MemoryStore) GetByBlogID(ctx context.Context, blogID string) (*models.Blog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, b := m.find(func(b *models.Blog) bool { return b.BlogID == blogID })
	if b == nil {
		return nil, content.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *MemoryStore) GetBySlug(ctx context.Context, slug string) (*models.Blog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, b := m.find(func(b *models.Blog) bool { return b.Slug == slug })
	if b == nil {
		return nil, content.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *MemoryStore) SlugExists(ctx context.Context, slug, excludeBlogID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, b := m.find(func(b *models.Blog) bool { return b.Slug == slug && b.BlogID != excludeBlogID })
	return b != nil, nil
}

func (m *MemoryStore) Insert(ctx context.Context, b *models.Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.find(func(x *models.Blog) bool { return x.Slug == b.Slug || x.BlogID == b.BlogID }); dup != nil {
		return content.ErrDuplicate
	}
	if b.ObjectID.IsZero() {
		b.ObjectID = primitive.NewObjectID()
	}
	cp := *b
	m.blogs = append(m.blogs, &cp)
	return nil
}

func (m *MemoryStore) Replace(ctx context.Context, b *models.Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.find(func(x *models.Blog) bool { return x.Slug == b.Slug && x.BlogID != b.BlogID }); dup != nil {
		return content.ErrDuplicate
	}
	_, cur := m.find(func(x *models.Blog) bool { return x.BlogID == b.BlogID })
	if cur == nil {
		return content.ErrNotFound
	}
	cur.Title = b.Title
	cur.Summary = b.Summary
	cur.Slug = b.Slug
	cur.Tags = append([]string(nil), b.Tags...)
	cur.Category = b.Category
	cur.Visibility = b.Visibility
	cur.Featured = b.Featured
	cur.CoverURL = b.CoverURL
	cur.ReadTime = b.ReadTime
	cur.Content = b.Content
	cur.UpdatedAt = b.UpdatedAt
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, blogID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, b := m.find(func(x *models.Blog) bool { return x.BlogID == blogID })
	if b == nil {
		return content.ErrNotFound
	}
	m.blogs = append(m.blogs[:i], m.blogs[i+1:]...)
	return nil
}

func (m *MemoryStore) IncrementCounter(ctx context.Context, blogID, field string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, b := m.find(func(x *models.Blog) bool { return x.BlogID == blogID })
	if b == nil {
		return content.ErrNotFound
	}
	switch field {
	case FieldViews:
		b.Views += delta
	case FieldLikes:
		b.Likes += delta
	case FieldComments:
		b.CommentsCount += delta
	}
	return nil
}

// newestFirst returns copies of the blogs matching pred, latest insert first.
func (m *MemoryStore) newestFirst(pred func(*models.Blog) bool) []models.Blog {
	out := []models.Blog{}
	for i := len(m.blogs) - 1; i >= 0; i-- {
		if pred(m.blogs[i]) {
			out = append(out, *m.blogs[i])
		}
	}
	return out
}

func (m *MemoryStore) List(ctx context.Context, o content.ListOptions) ([]models.Blog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	beforeIdx := len(m.blogs)
	if !o.Before.IsZero() {
		if i, _ := m.find(func(x *models.Blog) bool { return x.ObjectID == o.Before }); i >= 0 {
			beforeIdx = i
		}
	}
	out := []models.Blog{}
	for i := beforeIdx - 1; i >= 0; i-- {
		b := m.blogs[i]
		if !o.IncludePrivate && !b.IsPublic() {
			continue
		}
		if o.FeaturedOnly && !b.Featured {
			continue
		}
		out = append(out, *b)
		if o.Limit > 0 && int64(len(out)) == o.Limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) QuickSearch(ctx context.Context, query string, includePrivate bool, limit int64) ([]models.BlogSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(query)
	contains := func(s string) bool { return strings.Contains(strings.ToLower(s), q) }
	hits := m.newestFirst(func(b *models.Blog) bool {
		if !includePrivate && !b.IsPublic() {
			return false
		}
		if contains(b.Title) || contains(b.Summary) || contains(b.Category) {
			return true
		}
		for _, t := range b.Tags {
			if contains(t) {
				return true
			}
		}
		return false
	})
	out := []models.BlogSummary{}
	for _, b := range hits {
		if limit > 0 && int64(len(out)) == limit {
			break
		}
		out = append(out, models.BlogSummary{BlogID: b.BlogID, Title: b.Title, Slug: b.Slug, Summary: b.Summary, CoverURL: b.CoverURL})
	}
	return out, nil
}

func (m *MemoryStore) matches(b *models.Blog, f content.SearchFilter) bool {
	if !b.IsPublic() {
		return false
	}
	if len(f.Tags) > 0 {
		found := false
		for _, want := range f.Tags {
			for _, t := range b.Tags {
				if t == want {
					found = true
				}
			}
		}
		if !found {
			return false
		}
	}
	if f.Category != "" && b.Category != f.Category {
		return false
	}
	r := f.Views
	if (r.LT != nil && !(b.Views < *r.LT)) || (r.GT != nil && !(b.Views > *r.GT)) ||
		(r.LTE != nil && !(b.Views <= *r.LTE)) || (r.GTE != nil && !(b.Views >= *r.GTE)) {
		return false
	}
	c := f.CreatedAt
	if (c.LT != nil && !b.CreatedAt.Before(*c.LT)) || (c.GT != nil && !b.CreatedAt.After(*c.GT)) ||
		(c.LTE != nil && b.CreatedAt.After(*c.LTE)) || (c.GTE != nil && b.CreatedAt.Before(*c.GTE)) {
		return false
	}
	return true
}

func (m *MemoryStore) FacetedSearch(ctx context.Context, f content.SearchFilter) ([]models.CategoryGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	groups := map[string]*models.CategoryGroup{}
	var order []string
	for _, b := range m.newestFirst(func(b *models.Blog) bool { return m.matches(b, f) }) {
		g, ok := groups[b.Category]
		if !ok {
			g = &models.CategoryGroup{Category: b.Category}
			groups[b.Category] = g
			order = append(order, b.Category)
		}
		g.Blogs = append(g.Blogs, b)
		g.TotalBlogs++
	}
	out := make([]models.CategoryGroup, 0, len(order))
	for _, cat := range order {
		g := groups[cat]
		var total int64
		for _, b := range g.Blogs {
			total += b.Views
		}
		g.AverageViews = float64(total) / float64(g.TotalBlogs)
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AverageViews != out[j].AverageViews {
			return out[i].AverageViews > out[j].AverageViews
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (m *MemoryStore) CategoryStats(ctx context.Context) ([]models.CategoryStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := map[string]*models.CategoryStats{}
	views := map[string]int64{}
	for _, b := range m.blogs {
		s, ok := stats[b.Category]
		if !ok {
			s = &models.CategoryStats{Category: b.Category}
			stats[b.Category] = s
		}
		s.TotalBlogs++
		s.TotalLikes += b.Likes
		views[b.Category] += b.Views
	}
	out := make([]models.CategoryStats, 0, len(stats))
	for cat, s := range stats {
		s.AverageViews = float64(views[cat]) / float64(s.TotalBlogs)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalBlogs != out[j].TotalBlogs {
			return out[i].TotalBlogs > out[j].TotalBlogs
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}
