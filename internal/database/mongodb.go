package database

import (
	"context"
	"fmt"
	"time"

	"github.com/inkbloom/inkbloom/internal/models"
	"github.com/inkbloom/inkbloom/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo opens a connection and returns the client. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	clientOpts := options.Client().ApplyURI(uri).SetAppName("inkbloom")
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// ConnectWithRetry retries ConnectMongo with a linear backoff.
func ConnectWithRetry(ctx context.Context, uri string, timeout time.Duration, attempts int) (*mongo.Client, error) {
	var lastErr error
	for i := 1; i <= attempts; i++ {
		client, err := ConnectMongo(ctx, uri, timeout)
		if err == nil {
			return client, nil
		}
		lastErr = err
		logger.Warnf("mongo connect attempt %d/%d failed: %v", i, attempts, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i) * time.Second):
		}
	}
	return nil, fmt.Errorf("mongo unavailable after %d attempts: %w", attempts, lastErr)
}

// IndexSpecs lists the indexes the application relies on, per collection.
// The unique slug index backs the slug collision loop in the blog service.
func IndexSpecs() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		models.BlogsCollection: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_slug")},
			{Keys: bson.D{{Key: "blog_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_blog_id")},
			{Keys: bson.D{{Key: "visibility", Value: 1}, {Key: "_id", Value: -1}}, Options: options.Index().SetName("visibility_recent")},
			{Keys: bson.D{{Key: "tags", Value: 1}}, Options: options.Index().SetName("tags")},
		},
		models.CommentsCollection: {
			{Keys: bson.D{{Key: "comment_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_comment_id")},
			{Keys: bson.D{{Key: "blog_id", Value: 1}, {Key: "_id", Value: -1}}, Options: options.Index().SetName("blog_recent")},
			{Keys: bson.D{{Key: "author.user_id", Value: 1}}, Options: options.Index().SetName("author")},
		},
		models.UsersCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_user_id")},
		},
		models.TokensCollection: {
			{Keys: bson.D{{Key: "token_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_token_id")},
			// mongod removes expired tokens in the background
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires_at")},
		},
		models.FeedbackCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetName("user")},
		},
	}
}

// EnsureIndexes creates the indexes from IndexSpecs. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for coll, specs := range IndexSpecs() {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
