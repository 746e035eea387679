package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"karma_server/services"
	"karma_server/structs"
	"karma_server/structs/tables"

	"github.com/MonkyMars/gecho"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// updateTimeout bounds the handling of a single update
const updateTimeout = 30 * time.Second

// Sender is the part of the Telegram client the handlers use
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Bot struct {
	logger    *gecho.Logger
	cfg       *structs.Config
	client    *tgbotapi.BotAPI // nil when running on a custom Sender
	api       Sender
	catalog   *services.CatalogService
	checkout  *services.CheckoutService
	settings  *services.SettingsService
	admin     *services.AdminService
	rateLimit *services.RateLimitService

	userLocks sync.Map // int64 -> *sync.Mutex
}

// New connects to Telegram with the configured token
func New(logger *gecho.Logger, cfg *structs.Config, sm *services.ServiceManager) (*Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot token is not configured")
	}
	client, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	client.Debug = cfg.Bot.Debug

	b := NewWithSender(logger, cfg, sm, client)
	b.client = client
	logger.Info("Authorized on Telegram", gecho.Field("username", client.Self.UserName))
	return b, nil
}

// NewWithSender builds a bot on top of any Sender and subscribes to paid orders
func NewWithSender(logger *gecho.Logger, cfg *structs.Config, sm *services.ServiceManager, api Sender) *Bot {
	b := &Bot{
		logger:    logger,
		cfg:       cfg,
		api:       api,
		catalog:   sm.CatalogService,
		checkout:  sm.CheckoutService,
		settings:  sm.SettingsService,
		admin:     sm.AdminService,
		rateLimit: sm.RateLimitService,
	}
	sm.PaymentService.OnPaid(b.onPaid)
	return b
}

// Run long-polls Telegram until ctx is cancelled. Updates of different users
// are handled concurrently, updates of one user one at a time.
func (b *Bot) Run(ctx context.Context) error {
	if b.client == nil {
		return errors.New("bot has no telegram client")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.Bot.PollTimeout
	updates := b.client.GetUpdatesChan(u)

	b.logger.Info("Bot polling started")

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.client.StopReceivingUpdates()
			b.logger.Info("Bot polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				// in-flight updates finish even when shutdown has started
				updateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), updateTimeout)
				defer cancel()
				b.HandleUpdate(updateCtx, update)
			}()
		}
	}
}

// HandleUpdate dispatches one update. A panic in a handler is logged and
// answered with a generic failure.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	user, chatID, kind := updateSource(update)
	if user == nil {
		services.BotUpdates.WithLabelValues("other").Inc()
		return
	}
	services.BotUpdates.WithLabelValues(kind).Inc()

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in update handler",
				gecho.Field("panic", r),
				gecho.Field("user_id", user.ID),
			)
			b.send(chatID, textGenericError, nil)
		}
	}()

	if !b.rateLimit.AllowBotUpdate(ctx, user.ID) {
		b.logger.Warn("Bot rate limit exceeded", gecho.Field("user_id", user.ID))
		if update.CallbackQuery != nil {
			b.answer(update.CallbackQuery.ID, textTooManyRequests, true)
		}
		return
	}

	unlock := b.lockUser(user.ID)
	defer unlock()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery, chatID)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func updateSource(update tgbotapi.Update) (*tgbotapi.User, int64, string) {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		cb := update.CallbackQuery
		chatID := cb.From.ID
		if cb.Message != nil && cb.Message.Chat != nil {
			chatID = cb.Message.Chat.ID
		}
		return cb.From, chatID, "callback"
	case update.Message != nil && update.Message.From != nil && update.Message.Chat != nil:
		return update.Message.From, update.Message.Chat.ID, "message"
	}
	return nil, 0, ""
}

func (b *Bot) lockUser(userID int64) func() {
	v, _ := b.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

type interactiveUserKey struct{}

// withInteractiveUser marks a context whose user is looking at the chat and
// gets the payment result rendered directly
func withInteractiveUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, interactiveUserKey{}, userID)
}

// onPaid tells the customer about an order that was confirmed out of band,
// by the reconciler or a gateway notification
func (b *Bot) onPaid(ctx context.Context, order *tables.Order) {
	if userID, ok := ctx.Value(interactiveUserKey{}).(int64); ok && userID == order.UserID {
		return
	}

	// the interactive user already holds its lock and returned above
	unlock := b.lockUser(order.UserID)
	defer unlock()

	if err := b.checkout.Forget(ctx, order.UserID, order.ID); err != nil {
		b.logger.Warn("Failed to clear session of paid order",
			gecho.Field("error", err),
			gecho.Field("order_id", order.ID),
		)
	}
	b.send(order.UserID, paidText(order.ID, b.managerLink(order.ID)), b.managerKeyboard(order.ID))
}

func (b *Bot) send(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message", gecho.Field("error", err), gecho.Field("chat_id", chatID))
	}
}

func (b *Bot) sendPhoto(chatID int64, fileID, caption string, markup *tgbotapi.InlineKeyboardMarkup) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		photo.ReplyMarkup = *markup
	}
	if _, err := b.api.Send(photo); err != nil {
		// stale file ids are common after a bot token change
		b.logger.Warn("Failed to send photo, falling back to text", gecho.Field("error", err), gecho.Field("chat_id", chatID))
		b.send(chatID, caption, markup)
	}
}

func (b *Bot) sendVideo(chatID int64, fileID, caption string, markup *tgbotapi.InlineKeyboardMarkup) {
	video := tgbotapi.NewVideo(chatID, tgbotapi.FileID(fileID))
	video.Caption = caption
	video.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		video.ReplyMarkup = *markup
	}
	if _, err := b.api.Send(video); err != nil {
		b.logger.Warn("Failed to send video, falling back to text", gecho.Field("error", err), gecho.Field("chat_id", chatID))
		b.send(chatID, caption, markup)
	}
}

func (b *Bot) answer(callbackID, text string, alert bool) {
	cfg := tgbotapi.NewCallback(callbackID, text)
	cfg.ShowAlert = alert
	if _, err := b.api.Request(cfg); err != nil {
		b.logger.Debug("Failed to answer callback", gecho.Field("error", err))
	}
}
