package hosting

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/contre95/djsetlist/src/features/config"
	"github.com/contre95/djsetlist/src/features/recognizing"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramMessageHandler is implemented by features that answer chat messages.
type TelegramMessageHandler interface {
	HandleMessage(bot recognizing.TelegramSender, message *tgbotapi.Message) bool
	GetCommands() map[string]string // Returns command -> description mapping
}

// TelegramBot handles Telegram bot operations
type TelegramBot struct {
	bot      recognizing.TelegramSender
	config   *config.Manager
	handlers []TelegramMessageHandler
	updates  tgbotapi.UpdatesChannel
	stopChan chan struct{}
	stopUpd  func()
}

// NewTelegramBot creates a new Telegram bot instance
func NewTelegramBot(cfg *config.Manager, recognizingService *recognizing.Service) (*TelegramBot, error) {
	telegramConfig := cfg.Get().Telegram

	if !telegramConfig.Enabled {
		return nil, fmt.Errorf("telegram bot is disabled in configuration")
	}

	if telegramConfig.Token == "" {
		return nil, fmt.Errorf("telegram bot token is not configured")
	}

	bot, err := tgbotapi.NewBotAPI(telegramConfig.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	slog.Info("Telegram bot initialized", "username", bot.Self.UserName)

	// Set up update configuration
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	telegramBot := newTelegramBot(bot, cfg, bot.GetUpdatesChan(updateConfig))
	telegramBot.stopUpd = bot.StopReceivingUpdates
	telegramBot.RegisterHandler(recognizing.NewTelegramHandler(recognizingService, cfg.Get().Recognition.Timeout))

	return telegramBot, nil
}

func newTelegramBot(bot recognizing.TelegramSender, cfg *config.Manager, updates tgbotapi.UpdatesChannel) *TelegramBot {
	return &TelegramBot{
		bot:      bot,
		config:   cfg,
		updates:  updates,
		stopChan: make(chan struct{}),
	}
}

// RegisterHandler registers a feature's message handler
func (t *TelegramBot) RegisterHandler(handler TelegramMessageHandler) {
	t.handlers = append(t.handlers, handler)
}

// Start begins listening for Telegram updates
func (t *TelegramBot) Start() {
	slog.Info("Starting Telegram bot listener")

	for {
		select {
		case update, ok := <-t.updates:
			if !ok {
				return
			}
			if update.Message != nil {
				go t.handleMessage(update.Message)
			}
		case <-t.stopChan:
			slog.Info("Stopping Telegram bot listener")
			return
		}
	}
}

// Stop gracefully stops the bot
func (t *TelegramBot) Stop() {
	if t.stopUpd != nil {
		t.stopUpd()
	}
	close(t.stopChan)
}

// handleMessage processes incoming messages
func (t *TelegramBot) handleMessage(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if !t.authorized(message) {
		t.sendMessage(chatID, "Unknown user, please add your user to the config")
		return
	}

	if message.IsCommand() {
		switch message.Command() {
		case "start", "help":
			t.handleHelp(chatID)
		default:
			t.sendMessage(chatID, "❌ Unknown command. Send /help to see available commands.")
		}
		return
	}

	for _, handler := range t.handlers {
		if handler.HandleMessage(t.bot, message) {
			return
		}
	}

	t.sendMessage(chatID, "🤖 Send an audio clip or voice message to identify the track, or /help")
}

// authorized checks the sender against telegram.allowedUsers.
func (t *TelegramBot) authorized(message *tgbotapi.Message) bool {
	allowedUsers := t.config.Get().Telegram.AllowedUsers
	if len(allowedUsers) == 0 {
		slog.Warn("No allowed users configured", "chat_id", message.Chat.ID)
		return false
	}
	if message.From == nil {
		return false
	}

	username := message.From.UserName
	if username == "" {
		// Fallback to first name + last name
		username = message.From.FirstName
		if message.From.LastName != "" {
			username += " " + message.From.LastName
		}
	}
	if !slices.Contains(allowedUsers, username) {
		slog.Warn("Unauthorized user", "username", username, "chat_id", message.Chat.ID)
		return false
	}
	return true
}

// handleHelp lists the commands every handler exposes.
func (t *TelegramBot) handleHelp(chatID int64) {
	var lines []string
	for _, handler := range t.handlers {
		for command, description := range handler.GetCommands() {
			lines = append(lines, fmt.Sprintf("/%s - %s", command, description))
		}
	}
	sort.Strings(lines)
	t.sendMessage(chatID, "🎧 DJ Setlist\n\n"+strings.Join(lines, "\n"))
}

// sendMessage sends a message to the specified chat
func (t *TelegramBot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		slog.Error("Failed to send message", "error", err, "chat_id", chatID)
	}
}
