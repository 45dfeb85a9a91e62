package content

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/inkbloom/inkbloom/internal/database"
	"github.com/inkbloom/inkbloom/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
)

// testRepo starts a throwaway mongod and returns a repository on a fresh database.
func testRepo(t *testing.T) *MongoRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	c, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("could not start mongo container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	uri, err := c.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := database.ConnectMongo(ctx, uri, 20*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	db := client.Database("INKBLOOM_TEST")
	require.NoError(t, database.EnsureIndexes(ctx, db))
	return NewMongoRepository(db)
}

func newBlog(id, slug, category string, views int64) models.Blog {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return models.Blog{
		BlogID:     id,
		Title:      "Title " + id,
		Summary:    "summary of " + id,
		Slug:       slug,
		Tags:       []string{"go", category},
		Category:   category,
		Visibility: models.VisibilityPublic,
		Views:      views,
		Author:     models.AuthorRef{UserID: "u1", Name: "Ada"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestMongoRepositoryLifecycle(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, models.UsersCollection, models.User{UserID: "u1", Name: "Ada", AvatarURL: "a.png"}))
	require.NoError(t, repo.Insert(ctx, models.BlogsCollection, newBlog("b1", "hello", "tech", 10)))
	require.NoError(t, repo.Insert(ctx, models.BlogsCollection, newBlog("b2", "world", "tech", 30)))
	require.NoError(t, repo.Insert(ctx, models.BlogsCollection, newBlog("b3", "cooking", "food", 50)))

	// unique slug index
	err := repo.Insert(ctx, models.BlogsCollection, newBlog("b4", "hello", "tech", 0))
	require.True(t, errors.Is(err, ErrDuplicate), "got %v", err)

	var got models.Blog
	require.NoError(t, repo.FindOne(ctx, models.BlogsCollection, bson.M{"slug": "hello"}, &got))
	require.Equal(t, "b1", got.BlogID)

	err = repo.FindOne(ctx, models.BlogsCollection, bson.M{"slug": "missing"}, &got)
	require.ErrorIs(t, err, ErrNotFound)

	var hits []models.BlogSummary
	require.NoError(t, repo.Aggregate(ctx, models.BlogsCollection, QuickSearchPipeline("WORLD", false, 5), &hits))
	require.Len(t, hits, 1)
	require.Equal(t, "world", hits[0].Slug)

	var groups []models.CategoryGroup
	require.NoError(t, repo.Aggregate(ctx, models.BlogsCollection, FacetedSearchPipeline(SearchFilter{Tags: []string{"go"}}), &groups))
	require.Len(t, groups, 2)
	require.Equal(t, "food", groups[0].Category)
	require.Equal(t, float64(50), groups[0].AverageViews)
	require.Equal(t, "tech", groups[1].Category)
	require.Equal(t, 2, groups[1].TotalBlogs)
	require.NotNil(t, groups[1].Blogs[0].AuthorDetails)
	require.Equal(t, "a.png", groups[1].Blogs[0].AuthorDetails.AvatarURL)

	n, err := repo.Delete(ctx, models.BlogsCollection, bson.M{"category": "tech"})
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestMongoRepositoryConcurrentIncrement(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, models.BlogsCollection, newBlog("b1", "hello", "tech", 5)))

	const k = 25
	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, models.BlogsCollection, bson.M{"slug": "hello"}, bson.M{"$inc": bson.M{"views": 1}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var got models.Blog
	require.NoError(t, repo.FindOne(ctx, models.BlogsCollection, bson.M{"slug": "hello"}, &got))
	require.Equal(t, int64(5+k), got.Views)
}
