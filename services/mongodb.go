package services

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InitMongoDB initializes the MongoDB connection
func InitMongoDB(ctx context.Context, uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	slog.Info("Connected to MongoDB")

	return client, nil
}

// CreateIndexes creates the indexes the catalog and conversation
// collections rely on. The unique index on affiliate_link is what makes
// concurrent upserts of the same natural key collapse into one row.
func CreateIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	productsCollection := db.Collection("products")
	_, err := productsCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"affiliate_link": 1}, Options: options.Index().SetUnique(true)},
		{Keys: bson.M{"updated_at": -1}},
		{Keys: bson.M{"active": 1}},
	})
	if err != nil {
		return err
	}

	conversationsCollection := db.Collection("conversations")
	_, err = conversationsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"chat_id": 1},
		Options: options.Index().SetUnique(true),
	})
	return err
}
