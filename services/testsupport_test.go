package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"sales-bot/models"
)

// memCatalog is an in-memory CatalogStore with the same semantics as the
// Mongo-backed Catalog.
type memCatalog struct {
	mu       sync.Mutex
	products map[string]*models.Product
}

func newMemCatalog() *memCatalog {
	return &memCatalog{products: make(map[string]*models.Product)}
}

func (m *memCatalog) Get(ctx context.Context, affiliateLink string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[affiliateLink]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (m *memCatalog) Upsert(ctx context.Context, product models.Product) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.products[product.AffiliateLink]
	if !ok {
		product.CreatedAt = product.UpdatedAt
		product.SaleCount = 0
		m.products[product.AffiliateLink] = &product
		return true, nil
	}

	existing.Title = product.Title
	existing.Price = product.Price
	existing.Currency = product.Currency
	existing.Description = product.Description
	existing.Category = product.Category
	existing.Source = product.Source
	existing.Active = product.Active
	existing.UpdatedAt = product.UpdatedAt
	return false, nil
}

func (m *memCatalog) List(ctx context.Context, limit int, activeOnly bool) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var products []models.Product
	for _, p := range m.products {
		if activeOnly && !p.Active {
			continue
		}
		products = append(products, *p)
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].UpdatedAt.After(products[j].UpdatedAt)
	})
	if len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

func (m *memCatalog) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.products)), nil
}

func (m *memCatalog) StaleCount(ctx context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, p := range m.products {
		if p.SaleCount == 0 && p.UpdatedAt.Before(olderThan) {
			count++
		}
	}
	return count, nil
}

func (m *memCatalog) ArchiveStale(ctx context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, p := range m.products {
		if p.Active && p.SaleCount == 0 && p.UpdatedAt.Before(olderThan) {
			p.Active = false
			count++
		}
	}
	return count, nil
}

func (m *memCatalog) DeleteStale(ctx context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for link, p := range m.products {
		if p.SaleCount == 0 && p.UpdatedAt.Before(olderThan) {
			delete(m.products, link)
			count++
		}
	}
	return count, nil
}

func (m *memCatalog) RecordSale(ctx context.Context, affiliateLink, title string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[affiliateLink]
	if !ok {
		if title == "" {
			title = affiliateLink
		}
		now := time.Now()
		p = &models.Product{
			AffiliateLink: affiliateLink,
			Title:         title,
			Currency:      "USD",
			Active:        true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		m.products[affiliateLink] = p
	}
	p.SaleCount++
	p.UpdatedAt = time.Now()
	return p.SaleCount, nil
}

// seed inserts a product directly, bypassing upsert defaults.
func (m *memCatalog) seed(p models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := p
	m.products[p.AffiliateLink] = &copied
}

// memConversations is an in-memory ConversationLog.
type memConversations struct {
	mu    sync.Mutex
	items map[int64]*models.Conversation
}

func newMemConversations() *memConversations {
	return &memConversations{items: make(map[int64]*models.Conversation)}
}

func (m *memConversations) Record(ctx context.Context, chatID int64, message, reply string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[chatID] = &models.Conversation{
		ChatID:      chatID,
		LastMessage: message,
		LastReply:   reply,
		UpdatedAt:   time.Now(),
	}
	return nil
}

func (m *memConversations) Last(ctx context.Context, chatID int64) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversation, ok := m.items[chatID]
	if !ok {
		return nil, nil
	}
	copied := *conversation
	return &copied, nil
}

// stubFallback is a scripted FallbackResponder.
type stubFallback struct {
	reply string
	err   error
	calls int
}

func (s *stubFallback) Reply(ctx context.Context, message, catalogContext, lastExchange string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}
