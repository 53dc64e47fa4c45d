package mongostore

import (
	"context"
	"fmt"

	"task-tracker/backend/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection = "users"
	TasksCollection = "tasks"
)

// EnsureIndexes creates the unique email index on users and the owner
// lookup index on tasks. It is safe to call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: store.FieldEmail, Value: 1}},
			Options: options.Index().SetUnique(true).SetName("users_email_unique"),
		},
	})
	if err != nil {
		return fmt.Errorf("create users indexes: %w", err)
	}

	_, err = db.Collection(TasksCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: store.FieldOwnerID, Value: 1}, {Key: store.FieldCreatedAt, Value: 1}},
			Options: options.Index().SetName("tasks_owner_created"),
		},
	})
	if err != nil {
		return fmt.Errorf("create tasks indexes: %w", err)
	}

	return nil
}
