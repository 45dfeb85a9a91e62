package content

import (
	"regexp"
	"strings"
	"time"

	"github.com/inkbloom/inkbloom/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AuthorDetailsField receives the joined USERS row.
const AuthorDetailsField = "author_details"

// AuthorLookup joins USERS on author.user_id. Documents whose author row is
// gone are kept with no author_details.
func AuthorLookup() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: models.UsersCollection},
			{Key: "localField", Value: "author.user_id"},
			{Key: "foreignField", Value: "user_id"},
			{Key: "as", Value: AuthorDetailsField},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$" + AuthorDetailsField},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}
}

// ListOptions selects a page of blogs, newest first.
type ListOptions struct {
	IncludePrivate bool
	FeaturedOnly   bool
	// Before restricts to blogs inserted before this ObjectID (load-more paging).
	Before primitive.ObjectID
	Limit  int64
}

func ListBlogsPipeline(o ListOptions) mongo.Pipeline {
	match := bson.D{}
	if !o.IncludePrivate {
		match = append(match, bson.E{Key: "visibility", Value: models.VisibilityPublic})
	}
	if o.FeaturedOnly {
		match = append(match, bson.E{Key: "featured", Value: true})
	}
	if !o.Before.IsZero() {
		match = append(match, bson.E{Key: "_id", Value: bson.D{{Key: "$lt", Value: o.Before}}})
	}

	p := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
	}
	if o.Limit > 0 {
		p = append(p, bson.D{{Key: "$limit", Value: o.Limit}})
	}
	p = append(p, AuthorLookup()...)
	return p
}

// QuickSearchPipeline matches query as a literal, case-insensitive substring
// of title, summary, tags or category.
func QuickSearchPipeline(query string, includePrivate bool, limit int64) mongo.Pipeline {
	re := primitive.Regex{Pattern: regexp.QuoteMeta(strings.TrimSpace(query)), Options: "i"}
	match := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "title", Value: re}},
		bson.D{{Key: "summary", Value: re}},
		bson.D{{Key: "tags", Value: re}},
		bson.D{{Key: "category", Value: re}},
	}}}
	if !includePrivate {
		match = append(match, bson.E{Key: "visibility", Value: models.VisibilityPublic})
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$blog_id"},
			{Key: "doc", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
		}}},
		{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$doc"}}}},
		// $group does not keep order
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "blog_id", Value: 1},
			{Key: "title", Value: 1},
			{Key: "slug", Value: 1},
			{Key: "summary", Value: 1},
			{Key: "cover_url", Value: 1},
		}}},
	}
}

// Int64Range and TimeRange hold optional bounds; nil means unbounded.
type Int64Range struct {
	LT, GT, LTE, GTE *int64
}

type TimeRange struct {
	LT, GT, LTE, GTE *time.Time
}

// SearchFilter is the faceted search input.
type SearchFilter struct {
	Tags      []string
	Category  string
	CreatedAt TimeRange
	Views     Int64Range
}

func (r Int64Range) empty() bool { return r.LT == nil && r.GT == nil && r.LTE == nil && r.GTE == nil }
func (r TimeRange) empty() bool  { return r.LT == nil && r.GT == nil && r.LTE == nil && r.GTE == nil }

// Empty reports whether no criterion was supplied.
func (f SearchFilter) Empty() bool {
	return len(f.Tags) == 0 && f.Category == "" && f.CreatedAt.empty() && f.Views.empty()
}

func (r Int64Range) doc() bson.D {
	d := bson.D{}
	if r.LT != nil {
		d = append(d, bson.E{Key: "$lt", Value: *r.LT})
	}
	if r.GT != nil {
		d = append(d, bson.E{Key: "$gt", Value: *r.GT})
	}
	if r.LTE != nil {
		d = append(d, bson.E{Key: "$lte", Value: *r.LTE})
	}
	if r.GTE != nil {
		d = append(d, bson.E{Key: "$gte", Value: *r.GTE})
	}
	return d
}

func (r TimeRange) doc() bson.D {
	d := bson.D{}
	if r.LT != nil {
		d = append(d, bson.E{Key: "$lt", Value: *r.LT})
	}
	if r.GT != nil {
		d = append(d, bson.E{Key: "$gt", Value: *r.GT})
	}
	if r.LTE != nil {
		d = append(d, bson.E{Key: "$lte", Value: *r.LTE})
	}
	if r.GTE != nil {
		d = append(d, bson.E{Key: "$gte", Value: *r.GTE})
	}
	return d
}

// FacetedSearchPipeline filters public blogs, groups them by category and
// orders the groups by average views, highest first.
func FacetedSearchPipeline(f SearchFilter) mongo.Pipeline {
	match := bson.D{{Key: "visibility", Value: models.VisibilityPublic}}
	if len(f.Tags) > 0 {
		match = append(match, bson.E{Key: "tags", Value: bson.D{{Key: "$in", Value: f.Tags}}})
	}
	if f.Category != "" {
		match = append(match, bson.E{Key: "category", Value: f.Category})
	}
	if !f.CreatedAt.empty() {
		match = append(match, bson.E{Key: "created_at", Value: f.CreatedAt.doc()})
	}
	if !f.Views.empty() {
		match = append(match, bson.E{Key: "views", Value: f.Views.doc()})
	}

	p := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
	}
	p = append(p, AuthorLookup()...)
	p = append(p,
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "averageViews", Value: bson.D{{Key: "$avg", Value: "$views"}}},
			{Key: "totalBlogs", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "blogs", Value: bson.D{{Key: "$push", Value: bson.D{
				{Key: "blog_id", Value: "$blog_id"},
				{Key: "title", Value: "$title"},
				{Key: "slug", Value: "$slug"},
				{Key: "summary", Value: "$summary"},
				{Key: "cover_url", Value: "$cover_url"},
				{Key: "tags", Value: "$tags"},
				{Key: "category", Value: "$category"},
				{Key: "views", Value: "$views"},
				{Key: "likes", Value: "$likes"},
				{Key: "read_time", Value: "$read_time"},
				{Key: "created_at", Value: "$created_at"},
				{Key: "author", Value: "$author"},
				{Key: AuthorDetailsField, Value: "$" + AuthorDetailsField},
			}}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "averageViews", Value: -1}, {Key: "_id", Value: 1}}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "category", Value: "$_id"},
			{Key: "averageViews", Value: 1},
			{Key: "totalBlogs", Value: 1},
			{Key: "blogs", Value: 1},
		}}},
	)
	return p
}

// CategoryStatsPipeline summarises every category, largest first.
func CategoryStatsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "totalBlogs", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "averageViews", Value: bson.D{{Key: "$avg", Value: "$views"}}},
			{Key: "totalLikes", Value: bson.D{{Key: "$sum", Value: "$likes"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "totalBlogs", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "category", Value: "$_id"},
			{Key: "totalBlogs", Value: 1},
			{Key: "averageViews", Value: 1},
			{Key: "totalLikes", Value: 1},
		}}},
	}
}

// CommentsForBlogPipeline returns a blog's comments, newest first, with author rows.
func CommentsForBlogPipeline(blogID string) mongo.Pipeline {
	p := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "blog_id", Value: blogID}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
	}
	return append(p, AuthorLookup()...)
}
