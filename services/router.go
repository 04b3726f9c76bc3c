package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// FallbackResponder answers messages no rule matched. The Claude Assistant
// is the production implementation.
type FallbackResponder interface {
	Reply(ctx context.Context, message, catalogContext, lastExchange string) (string, error)
}

// Fixed user-facing replies. Kept deterministic so transport retries and
// tests see stable output.
const (
	welcomeReply     = "👋 Bienvenido al Bot de Ventas.\nEscriba 'lista' para ver los productos disponibles."
	emptyReply       = "⚠️ No hay productos cargados en este momento."
	notFoundReply    = "⚠️ No encontré ese producto. Escriba 'lista' para ver los números disponibles."
	unknownReply     = "🤖 No entendí su mensaje. Escriba 'lista' para ver los productos u 'hola' para empezar."
	sorryReply       = "😔 Lo siento, no puedo responder en este momento. Intente de nuevo en unos minutos."
	adminOKReply     = "🔐 Acceso de administrador confirmado."
	adminDeniedReply = "⛔ Token de administrador inválido."
	adminUsageReply  = "Uso: /admin <token>"
)

// fallbackContextSize caps how many products are forwarded as context to
// the fallback assistant.
const fallbackContextSize = 5

// Router classifies inbound messages and dispatches them to a handler. It
// only reads the catalog; mutation stays with the synchronizer and sweeper.
type Router struct {
	store          CatalogStore
	conversations  ConversationLog
	fallback       FallbackResponder
	adminTokenHash string
	listLimit      int
	staleAfter     time.Duration

	chatLocks sync.Map // chat id -> *sync.Mutex
}

// NewRouter builds a router. conversations may be nil to skip exchange
// recording; fallback may be nil when no assistant is configured.
func NewRouter(store CatalogStore, conversations ConversationLog, fallback FallbackResponder, adminTokenHash string, listLimit int, staleAfter time.Duration) *Router {
	return &Router{
		store:          store,
		conversations:  conversations,
		fallback:       fallback,
		adminTokenHash: adminTokenHash,
		listLimit:      listLimit,
		staleAfter:     staleAfter,
	}
}

// HandleMessage produces the reply for one inbound message. Messages from
// the same chat are serialized by a per-chat mutex; different chats proceed
// concurrently.
func (r *Router) HandleMessage(ctx context.Context, chatID int64, text string) string {
	lock := r.lockFor(chatID)
	lock.Lock()
	defer lock.Unlock()

	intent := Classify(text)
	slog.Info("Message classified",
		"chatID", chatID,
		"intent", intent.String(),
	)

	switch intent {
	case IntentGreeting:
		return welcomeReply
	case IntentAdmin:
		return r.handleAdmin(ctx, text)
	case IntentListing:
		return r.handleListing(ctx)
	case IntentLookup:
		return r.handleLookup(ctx, text)
	default:
		return r.handleFallback(ctx, chatID, text)
	}
}

func (r *Router) lockFor(chatID int64) *sync.Mutex {
	lock, _ := r.chatLocks.LoadOrStore(chatID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (r *Router) handleAdmin(ctx context.Context, text string) string {
	normalized := Normalize(text)

	if normalized == StatusCommand {
		total, err := r.store.Count(ctx)
		if err != nil {
			slog.Error("Failed to count products", "error", err)
			return sorryReply
		}
		stale, err := r.store.StaleCount(ctx, time.Now().Add(-r.staleAfter))
		if err != nil {
			slog.Error("Failed to count stale products", "error", err)
			return sorryReply
		}
		return fmt.Sprintf("📊 Estado del bot:\nProductos: %d\nObsoletos sin ventas: %d", total, stale)
	}

	// "/admin <token>" - token compared against the configured bcrypt hash
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) < 2 {
		return adminUsageReply
	}
	if r.adminTokenHash == "" {
		return adminDeniedReply
	}
	if err := bcrypt.CompareHashAndPassword([]byte(r.adminTokenHash), []byte(fields[1])); err != nil {
		slog.Warn("Admin token rejected")
		return adminDeniedReply
	}
	return adminOKReply
}

func (r *Router) handleListing(ctx context.Context) string {
	products, err := r.store.List(ctx, r.listLimit, true)
	if err != nil {
		slog.Error("Failed to list products", "error", err)
		return sorryReply
	}
	if len(products) == 0 {
		return emptyReply
	}

	var b strings.Builder
	b.WriteString("📋 Productos disponibles:\n")
	for i, p := range products {
		b.WriteString(fmt.Sprintf("%d. %s - %.2f %s", i+1, p.Title, p.Price, p.Currency))
		if p.Category != "" {
			b.WriteString(fmt.Sprintf(" (%s)", p.Category))
		}
		b.WriteString("\n")
		if p.AffiliateLink != "" {
			b.WriteString("   " + p.AffiliateLink + "\n")
		}
	}
	b.WriteString("\nEscriba el número de un producto para ver el detalle.")
	return b.String()
}

func (r *Router) handleLookup(ctx context.Context, text string) string {
	n, ok := parseLookupNumber(Normalize(text))
	if !ok || n <= 0 {
		return notFoundReply
	}

	// Numbers resolve against the same newest-first listing the listing
	// intent renders, so what the user sees is what resolves.
	products, err := r.store.List(ctx, r.listLimit, true)
	if err != nil {
		slog.Error("Failed to resolve product lookup", "error", err)
		return sorryReply
	}
	if n > len(products) {
		return notFoundReply
	}

	p := products[n-1]
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🛒 %s\n", p.Title))
	if p.Description != "" {
		b.WriteString(p.Description + "\n")
	}
	b.WriteString(fmt.Sprintf("💵 Precio: %.2f %s\n", p.Price, p.Currency))
	if p.Category != "" {
		b.WriteString("📦 Categoría: " + p.Category + "\n")
	}
	b.WriteString("🔗 Comprar: " + p.AffiliateLink)
	return b.String()
}

func (r *Router) handleFallback(ctx context.Context, chatID int64, text string) string {
	if r.fallback == nil {
		return unknownReply
	}

	catalogContext := r.catalogContext(ctx)
	lastExchange := r.lastExchange(ctx, chatID)

	reply, err := r.fallback.Reply(ctx, text, catalogContext, lastExchange)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return unknownReply
		}
		slog.Error("Fallback assistant failed", "error", err, "chatID", chatID)
		return sorryReply
	}
	if reply == "" {
		return unknownReply
	}

	// Recording is best-effort: a log failure never loses the reply.
	if r.conversations != nil {
		if err := r.conversations.Record(ctx, chatID, text, reply); err != nil {
			slog.Warn("Failed to record conversation", "error", err, "chatID", chatID)
		}
	}

	return reply
}

// catalogContext renders the top active products as short lines for the
// fallback assistant. The assistant never queries the store itself.
func (r *Router) catalogContext(ctx context.Context) string {
	products, err := r.store.List(ctx, fallbackContextSize, true)
	if err != nil {
		slog.Warn("Failed to build catalog context", "error", err)
		return ""
	}

	var lines []string
	for _, p := range products {
		lines = append(lines, fmt.Sprintf("- %s: %.2f %s (%s)", p.Title, p.Price, p.Currency, p.AffiliateLink))
	}
	return strings.Join(lines, "\n")
}

func (r *Router) lastExchange(ctx context.Context, chatID int64) string {
	if r.conversations == nil {
		return ""
	}
	conversation, err := r.conversations.Last(ctx, chatID)
	if err != nil || conversation == nil {
		return ""
	}
	return "Customer: " + conversation.LastMessage + "\nAssistant: " + conversation.LastReply
}
