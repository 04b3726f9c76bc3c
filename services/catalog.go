package services

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sales-bot/models"
)

// CatalogStore is the catalog contract the router, synchronizer and sweeper
// work against. The Mongo-backed Catalog is the production implementation;
// tests substitute an in-memory one.
type CatalogStore interface {
	Get(ctx context.Context, affiliateLink string) (*models.Product, error)
	Upsert(ctx context.Context, product models.Product) (bool, error)
	List(ctx context.Context, limit int, activeOnly bool) ([]models.Product, error)
	Count(ctx context.Context) (int64, error)
	StaleCount(ctx context.Context, olderThan time.Time) (int64, error)
	ArchiveStale(ctx context.Context, olderThan time.Time) (int64, error)
	DeleteStale(ctx context.Context, olderThan time.Time) (int64, error)
	RecordSale(ctx context.Context, affiliateLink, title string) (int64, error)
}

// Catalog stores products in the "products" collection, keyed by the
// affiliate link.
type Catalog struct {
	coll *mongo.Collection
}

func NewCatalog(db *mongo.Database) *Catalog {
	return &Catalog{coll: db.Collection("products")}
}

// Get fetches a product by its affiliate link. Returns nil without error
// when the product does not exist.
func (c *Catalog) Get(ctx context.Context, affiliateLink string) (*models.Product, error) {
	var product models.Product
	err := c.coll.FindOne(ctx, bson.M{"affiliate_link": affiliateLink}).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// Upsert inserts or updates a product by its affiliate link. The unique
// index on affiliate_link makes this atomic: concurrent upserts of the same
// key never produce two rows. Returns true when a new row was inserted.
func (c *Catalog) Upsert(ctx context.Context, product models.Product) (bool, error) {
	filter := bson.M{"affiliate_link": product.AffiliateLink}
	update := bson.M{
		"$set": bson.M{
			"title":       product.Title,
			"price":       product.Price,
			"currency":    product.Currency,
			"description": product.Description,
			"category":    product.Category,
			"source":      product.Source,
			"active":      product.Active,
			"updated_at":  product.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"affiliate_link": product.AffiliateLink,
			"sale_count":     int64(0),
			"created_at":     product.UpdatedAt,
		},
	}
	opts := options.Update().SetUpsert(true)

	result, err := c.coll.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		slog.Error("Failed to upsert product",
			"error", err,
			"affiliateLink", product.AffiliateLink,
		)
		return false, err
	}

	return result.UpsertedCount > 0, nil
}

// List returns products sorted newest-first by update time, capped at limit.
func (c *Catalog) List(ctx context.Context, limit int, activeOnly bool) ([]models.Product, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}

	findOptions := options.Find().
		SetSort(bson.M{"updated_at": -1}).
		SetLimit(int64(limit))

	cursor, err := c.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}

	return products, nil
}

// Count returns the total number of catalog rows, archived ones included.
func (c *Catalog) Count(ctx context.Context) (int64, error) {
	return c.coll.CountDocuments(ctx, bson.M{})
}

// StaleCount counts unsold rows whose last update is older than the cutoff.
func (c *Catalog) StaleCount(ctx context.Context, olderThan time.Time) (int64, error) {
	return c.coll.CountDocuments(ctx, bson.M{
		"updated_at": bson.M{"$lt": olderThan},
		"sale_count": int64(0),
	})
}

// ArchiveStale flips active=false on unsold rows older than the cutoff.
// Rows with recorded sales are never touched.
func (c *Catalog) ArchiveStale(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := c.coll.UpdateMany(ctx,
		bson.M{
			"active":     true,
			"sale_count": int64(0),
			"updated_at": bson.M{"$lt": olderThan},
		},
		bson.M{"$set": bson.M{"active": false}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// DeleteStale removes unsold rows older than the cutoff. Rows with recorded
// sales are never deleted, regardless of age.
func (c *Catalog) DeleteStale(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := c.coll.DeleteMany(ctx, bson.M{
		"sale_count": int64(0),
		"updated_at": bson.M{"$lt": olderThan},
	})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// RecordSale increments the cumulative sale counter for a product,
// creating the row on the first sale. Returns the new counter value.
func (c *Catalog) RecordSale(ctx context.Context, affiliateLink, title string) (int64, error) {
	if title == "" {
		title = affiliateLink
	}
	now := time.Now()

	filter := bson.M{"affiliate_link": affiliateLink}
	update := bson.M{
		"$inc": bson.M{"sale_count": int64(1)},
		"$set": bson.M{"updated_at": now},
		"$setOnInsert": bson.M{
			"affiliate_link": affiliateLink,
			"title":          title,
			"currency":       "USD",
			"active":         true,
			"created_at":     now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var product models.Product
	if err := c.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&product); err != nil {
		slog.Error("Failed to record sale",
			"error", err,
			"affiliateLink", affiliateLink,
		)
		return 0, err
	}

	return product.SaleCount, nil
}
