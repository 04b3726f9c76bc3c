package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sales-bot/models"
)

// maxExchangeLen bounds what gets stored per side of an exchange.
const maxExchangeLen = 500

// ConversationLog keeps the last exchanged message and reply per chat,
// upserted by chat id. It is rolling context, not a transcript.
type ConversationLog interface {
	Record(ctx context.Context, chatID int64, message, reply string) error
	Last(ctx context.Context, chatID int64) (*models.Conversation, error)
}

// Conversations is the Mongo-backed ConversationLog.
type Conversations struct {
	coll *mongo.Collection
}

func NewConversations(db *mongo.Database) *Conversations {
	return &Conversations{coll: db.Collection("conversations")}
}

// Record upserts the latest exchange for a chat, truncated to a bound.
func (c *Conversations) Record(ctx context.Context, chatID int64, message, reply string) error {
	filter := bson.M{"chat_id": chatID}
	update := bson.M{
		"$set": bson.M{
			"chat_id":      chatID,
			"last_message": truncate(message, maxExchangeLen),
			"last_reply":   truncate(reply, maxExchangeLen),
			"updated_at":   time.Now(),
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := c.coll.UpdateOne(ctx, filter, update, opts)
	return err
}

// Last returns the most recent exchange for a chat, or nil when the chat
// has no recorded history.
func (c *Conversations) Last(ctx context.Context, chatID int64) (*models.Conversation, error) {
	var conversation models.Conversation
	err := c.coll.FindOne(ctx, bson.M{"chat_id": chatID}).Decode(&conversation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &conversation, nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
