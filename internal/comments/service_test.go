package comments

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/inkbloom/inkbloom/internal/apperr"
	"github.com/inkbloom/inkbloom/internal/blogs"
	"github.com/inkbloom/inkbloom/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) IsProfane(ctx context.Context, text string) (bool, error) {
	args := m.Called(ctx, text)
	return args.Bool(0), args.Error(1)
}

type MockModerator struct {
	mock.Mock
}

func (m *MockModerator) BlockUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type failingInsert struct {
	*MemoryStore
}

func (failingInsert) Insert(ctx context.Context, c *models.Comment) error {
	return errors.New("write failed")
}

type fixture struct {
	svc        *Service
	store      *MemoryStore
	blogs      *blogs.MemoryStore
	classifier *MockClassifier
	moderator  *MockModerator
	blog       *models.Blog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:      NewMemoryStore(),
		blogs:      blogs.NewMemoryStore(),
		classifier: &MockClassifier{},
		moderator:  &MockModerator{},
	}
	f.blog = &models.Blog{BlogID: "b1", Slug: "hello", Visibility: models.VisibilityPublic, Author: models.AuthorRef{UserID: "owner"}}
	require.NoError(t, f.blogs.Insert(context.Background(), f.blog))
	f.svc = NewService(f.store, f.blogs, f.classifier, f.moderator)
	return f
}

func (f *fixture) count(t *testing.T) int64 {
	b, err := f.blogs.GetByBlogID(context.Background(), "b1")
	require.NoError(t, err)
	return b.CommentsCount
}

var reader = models.AuthorRef{UserID: "u1", Name: "Reader"}

func TestPostAcceptsCleanComment(t *testing.T) {
	f := newFixture(t)
	f.classifier.On("IsProfane", mock.Anything, "nice post").Return(false, nil)

	c, err := f.svc.Post(context.Background(), reader, "b1", "  nice <b>post</b> ")
	require.NoError(t, err)
	assert.Equal(t, "nice post", c.Content)
	assert.Equal(t, "hello", c.BlogSlug)
	assert.Equal(t, int64(1), f.count(t))

	list, err := f.svc.ForBlog(context.Background(), "b1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	f.moderator.AssertNotCalled(t, "BlockUser", mock.Anything, mock.Anything)
}

func TestPostFlaggedBlocksAuthor(t *testing.T) {
	f := newFixture(t)
	f.classifier.On("IsProfane", mock.Anything, "rude words").Return(true, nil)
	f.moderator.On("BlockUser", mock.Anything, "u1").Return(nil)

	_, err := f.svc.Post(context.Background(), reader, "b1", "rude words")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFlagged)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	assert.Equal(t, int64(0), f.count(t))

	list, _ := f.svc.ForBlog(context.Background(), "b1")
	assert.Empty(t, list)
	f.moderator.AssertExpectations(t)
}

func TestPostFlaggedAdminStillPosts(t *testing.T) {
	f := newFixture(t)
	f.classifier.On("IsProfane", mock.Anything, mock.Anything).Return(true, nil)
	adm := models.AuthorRef{UserID: "a", Name: "Admin", IsAdmin: true}

	_, err := f.svc.Post(context.Background(), adm, "b1", "rude words")
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.count(t))
	f.moderator.AssertNotCalled(t, "BlockUser", mock.Anything, mock.Anything)
}

func TestPostClassifierFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.classifier.On("IsProfane", mock.Anything, mock.Anything).Return(false, errors.New("timeout"))

	_, err := f.svc.Post(context.Background(), reader, "b1", "hello")
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.Equal(t, int64(0), f.count(t))
}

func TestPostValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Post(ctx, reader, "b1", "   ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.Post(ctx, reader, "b1", strings.Repeat("é", MaxLength+1))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.Post(ctx, reader, "missing", "hello")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	f.classifier.AssertNotCalled(t, "IsProfane", mock.Anything, mock.Anything)
}

func TestPostExactlyMaxLength(t *testing.T) {
	f := newFixture(t)
	f.classifier.On("IsProfane", mock.Anything, mock.Anything).Return(false, nil)
	_, err := f.svc.Post(context.Background(), reader, "b1", strings.Repeat("a", MaxLength))
	assert.NoError(t, err)
}

func TestPostInsertFailureRestoresCount(t *testing.T) {
	f := newFixture(t)
	f.classifier.On("IsProfane", mock.Anything, mock.Anything).Return(false, nil)
	svc := NewService(failingInsert{f.store}, f.blogs, f.classifier, f.moderator)

	_, err := svc.Post(context.Background(), reader, "b1", "hello")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, int64(0), f.count(t))
}

func TestDeleteOwnerOrAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.classifier.On("IsProfane", mock.Anything, mock.Anything).Return(false, nil)

	c1, err := f.svc.Post(ctx, reader, "b1", "one")
	require.NoError(t, err)
	c2, err := f.svc.Post(ctx, reader, "b1", "two")
	require.NoError(t, err)
	require.Equal(t, int64(2), f.count(t))

	err = f.svc.Delete(ctx, blogs.Viewer{UserID: "stranger"}, c1.CommentID)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	err = f.svc.Delete(ctx, blogs.Viewer{}, c1.CommentID)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	require.NoError(t, f.svc.Delete(ctx, blogs.Viewer{UserID: "u1"}, c1.CommentID))
	require.NoError(t, f.svc.Delete(ctx, blogs.Viewer{UserID: "admin", Admin: true}, c2.CommentID))
	assert.Equal(t, int64(0), f.count(t))

	err = f.svc.Delete(ctx, blogs.Viewer{UserID: "u1"}, c1.CommentID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestPurgeAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.classifier.On("IsProfane", mock.Anything, mock.Anything).Return(false, nil)
	for _, txt := range []string{"a", "b", "c"} {
		_, err := f.svc.Post(ctx, reader, "b1", txt)
		require.NoError(t, err)
	}
	_, err := f.svc.Post(ctx, models.AuthorRef{UserID: "u2"}, "b1", "keep")
	require.NoError(t, err)

	n, err := f.svc.PurgeAuthor(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int64(1), f.count(t))

	mine, err := f.svc.ByAuthor(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestPostStoresPlainText(t *testing.T) {
	f := newFixture(t)
	f.classifier.On("IsProfane", mock.Anything, mock.Anything).Return(false, nil)

	c, err := f.svc.Post(context.Background(), reader, "b1", `Tom & Jerry's "best" 2 < 3`)
	require.NoError(t, err)
	assert.Equal(t, `Tom & Jerry's "best" 2 < 3`, c.Content)

	list, err := f.svc.ForBlog(context.Background(), "b1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, `Tom & Jerry's "best" 2 < 3`, list[0].Content)
}

func TestPostMarkupOnlyIsEmpty(t *testing.T) {
	f := newFixture(t)
	for _, in := range []string{"<script>alert(1)</script>", "<b></b> <i> </i>"} {
		_, err := f.svc.Post(context.Background(), reader, "b1", in)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), in)
	}
	assert.Equal(t, int64(0), f.count(t))
	list, _ := f.svc.ForBlog(context.Background(), "b1")
	assert.Empty(t, list)
	f.classifier.AssertNotCalled(t, "IsProfane", mock.Anything, mock.Anything)
}
