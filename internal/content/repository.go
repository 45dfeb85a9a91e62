// Package content is the thin data-access layer over the InkBloom collections.
package content

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("content: document not found")
	ErrDuplicate = errors.New("content: duplicate key")
)

// FindOptions controls FindMany. A zero Limit means no limit.
type FindOptions struct {
	Sort       bson.D
	Limit      int64
	Skip       int64
	Projection bson.D
}

// Repository is the generic document API used by the domain stores.
type Repository interface {
	FindOne(ctx context.Context, collection string, filter interface{}, out interface{}) error
	FindMany(ctx context.Context, collection string, filter interface{}, opts FindOptions, out interface{}) error
	Insert(ctx context.Context, collection string, doc interface{}) error
	// Update applies patch (an update document such as {$set: ...} or {$inc: ...})
	// to the first match and returns the matched count.
	Update(ctx context.Context, collection string, filter interface{}, patch interface{}) (int64, error)
	// Upsert applies patch with upsert semantics and decodes the post-image into out.
	Upsert(ctx context.Context, collection string, filter interface{}, patch interface{}, out interface{}) error
	Delete(ctx context.Context, collection string, filter interface{}) (int64, error)
	Count(ctx context.Context, collection string, filter interface{}) (int64, error)
	Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline, out interface{}) error
}

// MongoRepository implements Repository on one database.
type MongoRepository struct {
	db *mongo.Database
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{db: db}
}

// FindOne decodes the first match in insertion order. ErrNotFound when none.
func (r *MongoRepository) FindOne(ctx context.Context, collection string, filter interface{}, out interface{}) error {
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	err := r.db.Collection(collection).FindOne(ctx, filter, opts).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find one in %s: %w", collection, err)
	}
	return nil
}

func (r *MongoRepository) FindMany(ctx context.Context, collection string, filter interface{}, fo FindOptions, out interface{}) error {
	opts := options.Find()
	if len(fo.Sort) > 0 {
		opts.SetSort(fo.Sort)
	}
	if fo.Limit > 0 {
		opts.SetLimit(fo.Limit)
	}
	if fo.Skip > 0 {
		opts.SetSkip(fo.Skip)
	}
	if len(fo.Projection) > 0 {
		opts.SetProjection(fo.Projection)
	}
	cur, err := r.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return fmt.Errorf("find in %s: %w", collection, err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}

func (r *MongoRepository) Insert(ctx context.Context, collection string, doc interface{}) error {
	_, err := r.db.Collection(collection).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("insert into %s: %w", collection, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert into %s: %w", collection, err)
	}
	return nil
}

func (r *MongoRepository) Update(ctx context.Context, collection string, filter interface{}, patch interface{}) (int64, error) {
	res, err := r.db.Collection(collection).UpdateOne(ctx, filter, patch)
	if mongo.IsDuplicateKeyError(err) {
		return 0, fmt.Errorf("update %s: %w", collection, ErrDuplicate)
	}
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", collection, err)
	}
	return res.MatchedCount, nil
}

func (r *MongoRepository) Upsert(ctx context.Context, collection string, filter interface{}, patch interface{}, out interface{}) error {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	res := r.db.Collection(collection).FindOneAndUpdate(ctx, filter, patch, opts)
	if err := res.Err(); err != nil {
		return fmt.Errorf("upsert %s: %w", collection, err)
	}
	if out == nil {
		return nil
	}
	if err := res.Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, collection string, filter interface{}) (int64, error) {
	res, err := r.db.Collection(collection).DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", collection, err)
	}
	return res.DeletedCount, nil
}

func (r *MongoRepository) Count(ctx context.Context, collection string, filter interface{}) (int64, error) {
	n, err := r.db.Collection(collection).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

func (r *MongoRepository) Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline, out interface{}) error {
	cur, err := r.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("aggregate %s: %w", collection, err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("decode aggregate %s: %w", collection, err)
	}
	return nil
}
