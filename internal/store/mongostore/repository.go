// Package mongostore implements store.Repository on a MongoDB collection.
package mongostore

import (
	"context"
	"errors"
	"time"

	"task-tracker/backend/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// stamper is implemented by entities that carry created/updated timestamps.
// gorm fills these itself; Mongo inserts have to do it here.
type stamper interface {
	StampCreated(now time.Time)
}

type Repository[T any] struct {
	coll *mongo.Collection
	now  func() time.Time
}

func New[T any](coll *mongo.Collection) *Repository[T] {
	return &Repository[T]{coll: coll, now: time.Now}
}

func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	if s, ok := any(entity).(stamper); ok {
		s.StampCreated(r.now().UTC())
	}
	_, err := r.coll.InsertOne(ctx, entity)
	return translate(err)
}

func (r *Repository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	return r.FindOne(ctx, store.ByID(id))
}

func (r *Repository[T]) FindOne(ctx context.Context, filter store.Filter) (*T, error) {
	var out T
	if err := r.coll.FindOne(ctx, toBSON(filter)).Decode(&out); err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (r *Repository[T]) List(ctx context.Context, filter store.Filter) ([]T, error) {
	opts := options.Find().SetSort(bson.D{{Key: store.FieldCreatedAt, Value: 1}})
	cursor, err := r.coll.Find(ctx, toBSON(filter), opts)
	if err != nil {
		return nil, translate(err)
	}

	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// Update is a single FindOneAndUpdate returning the post-image.
func (r *Repository[T]) Update(ctx context.Context, filter store.Filter, fields store.Fields) (*T, error) {
	set := bson.M{store.FieldUpdatedAt: r.now().UTC()}
	for k, v := range fields {
		set[key(k)] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out T
	err := r.coll.FindOneAndUpdate(ctx, toBSON(filter), bson.M{"$set": set}, opts).Decode(&out)
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (r *Repository[T]) Delete(ctx context.Context, filter store.Filter) error {
	res, err := r.coll.DeleteOne(ctx, toBSON(filter))
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func toBSON(filter store.Filter) bson.D {
	doc := bson.D{}
	for _, cond := range filter {
		switch cond.Op {
		case store.OpGt:
			doc = append(doc, bson.E{Key: key(cond.Field), Value: bson.M{"$gt": cond.Value}})
		default:
			doc = append(doc, bson.E{Key: key(cond.Field), Value: cond.Value})
		}
	}
	return doc
}

func key(field string) string {
	if field == store.FieldID {
		return "_id"
	}
	return field
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.ErrDuplicate
	default:
		return err
	}
}
