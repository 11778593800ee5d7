package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"ai-query-router-be/internal/entity"
	"ai-query-router-be/internal/pkg/logger"
	"ai-query-router-be/pkg/ai/router"
)

// sessionNamespace scopes the per chat session UUIDs
var sessionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("ai-query-router/telegram"))

// QueryRouter is the orchestrator entry point
type QueryRouter interface {
	Route(ctx context.Context, text, userId, sessionId string) *router.Result
}

type Bot struct {
	api    *tgbotapi.BotAPI
	router QueryRouter
	logger logger.ILogger
	send   func(c tgbotapi.Chattable) error

	mu          sync.Mutex
	generations map[int64]int
}

func New(token string, r QueryRouter, log logger.ILogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	b := newBot(r, log)
	b.api = api
	b.send = func(c tgbotapi.Chattable) error {
		_, err := api.Send(c)
		return err
	}
	return b, nil
}

func newBot(r QueryRouter, log logger.ILogger) *Bot {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Bot{
		router:      r,
		logger:      log,
		generations: make(map[int64]int),
	}
}

// Start polls for updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

// SessionID derives a stable session UUID for a chat. /new bumps the generation.
func (b *Bot) SessionID(chatID int64) string {
	b.mu.Lock()
	gen := b.generations[chatID]
	b.mu.Unlock()
	return uuid.NewSHA1(sessionNamespace, []byte(fmt.Sprintf("chat:%d:%d", chatID, gen))).String()
}

func (b *Bot) resetSession(chatID int64) {
	b.mu.Lock()
	b.generations[chatID]++
	b.mu.Unlock()
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		switch message.Command() {
		case "start", "help":
			b.reply(message, helpText)
			return
		case "categories":
			b.reply(message, categoriesText())
			return
		case "new":
			b.resetSession(message.Chat.ID)
			b.reply(message, "Started a new conversation.")
			return
		}
		// other commands, such as /category:NAME overrides, go to the router as typed
	}

	text := message.Text
	if text == "" {
		text = message.Caption
	}
	if strings.TrimSpace(text) == "" {
		b.reply(message, "I can only answer text messages.")
		return
	}

	userID := strconv.FormatInt(message.Chat.ID, 10)
	if message.From != nil {
		userID = strconv.FormatInt(message.From.ID, 10)
	}

	res := b.router.Route(ctx, text, userID, b.SessionID(message.Chat.ID))
	b.logger.Debug("TELEGRAM", "Query routed", map[string]interface{}{
		"chat_id": message.Chat.ID,
		"outcome": res.Outcome,
	})
	b.reply(message, res.Reply())
}

func (b *Bot) reply(message *tgbotapi.Message, text string) {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyToMessageID = message.MessageID
	if err := b.send(msg); err != nil {
		b.logger.Error("TELEGRAM", "Failed to send message", map[string]interface{}{
			"chat_id": message.Chat.ID,
			"error":   err.Error(),
		})
	}
}

const helpText = `Send me any question and I will pass it to the right assistant.

Commands:
/categories - list the categories I route to
/category:NAME your question - skip classification and use one category
/new - start a new conversation`

func categoriesText() string {
	var sb strings.Builder
	sb.WriteString("Categories:\n")
	for _, info := range entity.AllCategories() {
		fmt.Fprintf(&sb, "%d. %s - %s\n", info.Priority, info.Category, info.Description)
	}
	return strings.TrimRight(sb.String(), "\n")
}
