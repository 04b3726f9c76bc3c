package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product represents one catalog entry. The affiliate link is the natural
// key: re-ingesting the same link updates the row instead of duplicating it.
type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AffiliateLink string             `bson:"affiliate_link" json:"affiliate_link"`
	Title         string             `bson:"title" json:"title"`
	Price         float64            `bson:"price" json:"price"`
	Currency      string             `bson:"currency" json:"currency"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Category      string             `bson:"category,omitempty" json:"category,omitempty"`
	Source        string             `bson:"source,omitempty" json:"source,omitempty"`
	Active        bool               `bson:"active" json:"active"`
	SaleCount     int64              `bson:"sale_count" json:"sale_count"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// Conversation is the rolling per-chat exchange log: only the last message
// and reply are kept, as short context for the fallback assistant.
type Conversation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChatID      int64              `bson:"chat_id" json:"chat_id"`
	LastMessage string             `bson:"last_message" json:"last_message"`
	LastReply   string             `bson:"last_reply" json:"last_reply"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
