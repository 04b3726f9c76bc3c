package webhooks

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// MessageHandler produces the reply for one inbound message.
type MessageHandler interface {
	HandleMessage(ctx context.Context, chatID int64, text string) string
}

// ReplySender delivers the reply back through the messaging transport.
type ReplySender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// RegisterRoutes mounts the Telegram webhook endpoint.
func RegisterRoutes(app *fiber.App, router MessageHandler, sender ReplySender) {
	app.Post("/webhook", handleWebhookEvent(router, sender))
}

// handleWebhookEvent acknowledges the update immediately and processes it
// in the background, so a slow dependency never triggers transport-level
// retries against the endpoint.
func handleWebhookEvent(router MessageHandler, sender ReplySender) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var update Update
		if err := c.BodyParser(&update); err != nil {
			slog.Error("Failed to parse webhook body", "error", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"ok":    false,
				"error": "malformed update",
			})
		}

		// Updates without message text (edits, stickers, joins) are
		// acknowledged and dropped.
		if update.Message == nil || update.Message.Text == "" {
			return c.JSON(fiber.Map{"ok": true})
		}

		go processUpdate(update, router, sender)

		return c.JSON(fiber.Map{"ok": true})
	}
}

// processUpdate handles one update in its own goroutine.
func processUpdate(update Update, router MessageHandler, sender ReplySender) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	chatID := update.Message.Chat.ID
	text := update.Message.Text

	slog.Info("Processing update",
		"updateID", update.UpdateID,
		"chatID", chatID,
	)

	reply := router.HandleMessage(ctx, chatID, text)
	if reply == "" {
		return
	}

	if err := sender.SendMessage(ctx, chatID, reply); err != nil {
		slog.Error("Failed to deliver reply",
			"error", err,
			"chatID", chatID,
		)
	}
}
