package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type mongoCollection[T any] struct {
	coll *mongo.Collection
	now  func() time.Time
}

// mongoField maps storage names onto document fields.
func mongoField(name string) string {
	if name == "id" {
		return "_id"
	}
	return name
}

func mongoFilter(filter Filter) (bson.M, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}
	out := bson.M{}
	for k, v := range filter.Eq {
		out[mongoField(k)] = v
	}
	for k, v := range filter.Lt {
		field := mongoField(k)
		if eq, ok := out[field]; ok {
			out[field] = bson.M{"$eq": eq, "$lt": v}
			continue
		}
		out[field] = bson.M{"$lt": v}
	}
	return out, nil
}

func mongoSet(partial map[string]any) bson.M {
	set := bson.M{}
	for k, v := range partial {
		set[mongoField(k)] = v
	}
	return bson.M{"$set": set}
}

func (c *mongoCollection[T]) List(ctx context.Context, filter Filter) ([]T, error) {
	f, err := mongoFilter(filter)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := c.coll.Find(ctx, f, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.coll.Name(), err)
	}
	defer cur.Close(ctx)

	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.coll.Name(), err)
	}
	return out, nil
}

func (c *mongoCollection[T]) Get(ctx context.Context, id string) (*T, error) {
	var doc T
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *mongoCollection[T]) Create(ctx context.Context, doc *T) (string, error) {
	id, err := prepare(doc, c.now())
	if err != nil {
		return "", err
	}
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return "", err
	}
	return id, nil
}

func (c *mongoCollection[T]) Update(ctx context.Context, id string, partial map[string]any) error {
	if err := validatePartial(partial); err != nil {
		return err
	}
	res, err := c.coll.UpdateOne(ctx, bson.M{"_id": id}, mongoSet(withUpdatedAt(partial, c.now())))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *mongoCollection[T]) Delete(ctx context.Context, id string) error {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *mongoCollection[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	f, err := mongoFilter(filter)
	if err != nil {
		return 0, err
	}
	return c.coll.CountDocuments(ctx, f)
}

func (c *mongoCollection[T]) UpdateWhere(ctx context.Context, filter Filter, partial map[string]any) (int64, error) {
	if err := validatePartial(partial); err != nil {
		return 0, err
	}
	f, err := mongoFilter(filter)
	if err != nil {
		return 0, err
	}
	res, err := c.coll.UpdateMany(ctx, f, mongoSet(withUpdatedAt(partial, c.now())))
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (c *mongoCollection[T]) DeleteWhere(ctx context.Context, filter Filter) (int64, error) {
	f, err := mongoFilter(filter)
	if err != nil {
		return 0, err
	}
	if len(f) == 0 {
		return 0, errors.New("docstore: refusing unfiltered delete")
	}
	res, err := c.coll.DeleteMany(ctx, f)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
