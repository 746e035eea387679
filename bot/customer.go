package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"karma_server/lib"
	"karma_server/structs"

	"github.com/MonkyMars/gecho"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if len(msg.Photo) > 0 || msg.Video != nil {
		b.handleMedia(ctx, msg)
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.send(msg.Chat.ID, welcomeText(b.cfg.Shop), b.mainKeyboard())
		case "catalog":
			b.showCategories(ctx, msg.Chat.ID)
		case "cart":
			b.showCart(ctx, msg.Chat.ID, msg.From.ID)
		case "cancel":
			b.cancel(ctx, msg.Chat.ID, msg.From.ID)
		default:
			if !b.handleAdminCommand(ctx, msg.Chat.ID, msg.From.ID, msg.Command(), msg.CommandArguments()) {
				b.send(msg.Chat.ID, textUseMenu, b.mainKeyboard())
			}
		}
		return
	}

	b.handleText(ctx, msg)
}

// handleText feeds free text into the checkout step waiting for it
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	res, err := b.checkout.SubmitText(ctx, msg.From.ID, msg.Text)
	if err != nil {
		if errors.Is(err, lib.ErrValidation) && res != nil {
			b.send(msg.Chat.ID, rePrompt(res.State), cancelKeyboard())
			return
		}
		if errors.Is(err, lib.ErrNoPendingInput) {
			b.send(msg.Chat.ID, textUseMenu, b.mainKeyboard())
			return
		}
		b.fail(msg.Chat.ID, msg.From.ID, err)
		return
	}
	b.render(msg.Chat.ID, res, false)
}

func rePrompt(state structs.CheckoutState) string {
	switch state {
	case structs.StateWaitingName:
		return textBadName + "\n\n" + textAskName
	case structs.StateWaitingPhone:
		return textBadPhone + "\n\n" + textAskPhone
	case structs.StateWaitingAddress:
		return textBadAddress + "\n\n" + textAskAddress
	}
	return textUseMenu
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, chatID int64) {
	b.answer(cb.ID, "", false)

	userID := cb.From.ID
	parts := strings.Split(cb.Data, ":")

	switch cb.Data {
	case cbMain:
		b.send(chatID, welcomeText(b.cfg.Shop), b.mainKeyboard())
		return
	case cbAbout:
		b.send(chatID, textAbout, backKeyboard())
		return
	case cbFAQ:
		b.send(chatID, textFAQ, backKeyboard())
		return
	case cbFeatures:
		b.send(chatID, textFeatures, backKeyboard())
		return
	case cbDescription:
		b.showDescription(ctx, chatID)
		return
	case cbCatalog:
		b.showCategories(ctx, chatID)
		return
	case cbCart:
		b.showCart(ctx, chatID, userID)
		return
	case cbCartClear:
		if err := b.checkout.ClearCart(ctx, userID); err != nil {
			b.fail(chatID, userID, err)
			return
		}
		b.send(chatID, textCartCleared, b.mainKeyboard())
		return
	case cbCheckout:
		res, err := b.checkout.StartCheckout(ctx, userID)
		b.reply(chatID, userID, res, err, false)
		return
	case cbDeliveryMenu:
		b.send(chatID, deliveryText(b.checkout.DeliveryMethods()), deliveryKeyboard(b.checkout.DeliveryMethods()))
		return
	case cbPay:
		res, err := b.checkout.ConfirmOrder(ctx, userID)
		b.reply(chatID, userID, res, err, false)
		return
	case cbCheck:
		res, err := b.checkout.CheckPayment(withInteractiveUser(ctx, userID), userID)
		if err == nil && !res.Paid {
			b.send(chatID, textNotPaidYet, paymentKeyboard(res.Session.PaymentURL))
			return
		}
		b.reply(chatID, userID, res, err, false)
		return
	case cbCancel:
		b.cancel(ctx, chatID, userID)
		return
	}

	ids, ok := parseIDs(parts[1:])
	switch {
	case parts[0] == prefixCategory && ok && len(ids) == 1:
		b.showTitles(ctx, chatID, ids[0])
	case parts[0] == prefixTitle && ok && len(ids) == 2:
		b.showProducts(ctx, chatID, ids[0], int(ids[1]))
	case parts[0] == prefixProduct && ok && len(ids) == 1:
		b.showProduct(ctx, chatID, ids[0])
	case parts[0] == prefixSize && ok && len(ids) == 2:
		res, err := b.checkout.SelectSize(ctx, userID, cb.From.UserName, ids[0], ids[1])
		b.reply(chatID, userID, res, err, true)
	case parts[0] == prefixDelivery && len(parts) == 2:
		res, err := b.checkout.ChooseDelivery(ctx, userID, parts[1])
		b.reply(chatID, userID, res, err, false)
	case strings.HasPrefix(cb.Data, prefixCartRm+":") && len(parts) == 3:
		index, err := strconv.Atoi(parts[2])
		if err != nil {
			b.send(chatID, textUseMenu, b.mainKeyboard())
			return
		}
		session, err := b.checkout.RemoveCartItem(ctx, userID, index)
		if err != nil {
			b.fail(chatID, userID, err)
			return
		}
		b.renderCart(chatID, session)
	default:
		b.logger.Debug("Unknown callback", gecho.Field("data", cb.Data), gecho.Field("user_id", userID))
		b.send(chatID, textUseMenu, b.mainKeyboard())
	}
}

func parseIDs(raw []string) ([]int64, bool) {
	ids := make([]int64, 0, len(raw))
	for _, r := range raw {
		id, err := strconv.ParseInt(r, 10, 64)
		if err != nil || id < 1 {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func (b *Bot) reply(chatID, userID int64, res *structs.CheckoutResult, err error, selected bool) {
	if err != nil {
		b.fail(chatID, userID, err)
		return
	}
	b.render(chatID, res, selected)
}

func (b *Bot) fail(chatID, userID int64, err error) {
	if !isExpected(err) {
		b.logger.Error("Bot handler failed", gecho.Field("error", err), gecho.Field("user_id", userID))
	}
	b.send(chatID, userMessage(err), b.mainKeyboard())
}

// render shows the screen for the workflow state in res. selected prefixes the
// screen with the cart summary right after a size was picked.
func (b *Bot) render(chatID int64, res *structs.CheckoutResult, selected bool) {
	session := res.Session
	prefix := ""
	if selected && session != nil {
		prefix = selectionText(session, b.cfg.Shop) + "\n\n"
	}

	switch res.State {
	case structs.StateSelectingSize:
		b.send(chatID, "✅ Добавлено в корзину\n\n"+cartText(session, b.cfg.Shop), b.addedKeyboard())
	case structs.StateWaitingName:
		b.send(chatID, prefix+textAskName, cancelKeyboard())
	case structs.StateWaitingPhone:
		b.send(chatID, textAskPhone, cancelKeyboard())
	case structs.StateWaitingAddress:
		b.send(chatID, textAskAddress, cancelKeyboard())
	case structs.StateChoosingDelivery:
		b.send(chatID, prefix+deliveryText(res.Methods), deliveryKeyboard(res.Methods))
	case structs.StateConfirmingOrder:
		b.send(chatID, orderSummaryText(session), b.confirmKeyboard())
	case structs.StateAwaitingPayment:
		b.send(chatID, paymentText(session), paymentKeyboard(session.PaymentURL))
	case structs.StatePaid:
		b.send(chatID, paidText(res.Order.ID, b.managerLink(res.Order.ID)), b.managerKeyboard(res.Order.ID))
	case structs.StateCancelled:
		b.send(chatID, textCancelled, b.mainKeyboard())
	}
}

func (b *Bot) cancel(ctx context.Context, chatID, userID int64) {
	res, err := b.checkout.Cancel(ctx, userID)
	b.reply(chatID, userID, res, err, false)
}

func (b *Bot) showCategories(ctx context.Context, chatID int64) {
	categories, err := b.catalog.ListCategories(ctx)
	if err != nil {
		b.fail(chatID, chatID, err)
		return
	}
	if len(categories) == 0 {
		b.send(chatID, textNoCategories, backKeyboard())
		return
	}
	b.send(chatID, textChooseCategory, categoriesKeyboard(categories))
}

func (b *Bot) showTitles(ctx context.Context, chatID, categoryID int64) {
	category, err := b.catalog.GetCategory(ctx, categoryID)
	if err != nil {
		b.fail(chatID, chatID, err)
		return
	}
	titles, err := b.catalog.ListTitles(ctx, categoryID)
	if err != nil {
		b.fail(chatID, chatID, err)
		return
	}
	if len(titles) == 0 {
		b.send(chatID, textNoProducts, keyboard(button("🔙 К категориям", cbCatalog)))
		return
	}
	b.send(chatID, "📂 <b>"+escape(category.Name)+"</b>\n\nВыберите тайтл:", titlesKeyboard(titles))
}

// showProducts sends a header with page navigation followed by one card per product
func (b *Bot) showProducts(ctx context.Context, chatID, titleID int64, page int) {
	title, err := b.catalog.GetTitle(ctx, titleID)
	if err != nil {
		b.fail(chatID, chatID, err)
		return
	}
	result, err := b.catalog.ListActiveProducts(ctx, titleID, page)
	if err != nil {
		b.fail(chatID, chatID, err)
		return
	}
	if len(result.Products) == 0 {
		b.send(chatID, textNoProducts, productsNavKeyboard(title, result))
		return
	}

	b.send(chatID, productsHeader(title, result), productsNavKeyboard(title, result))
	for _, product := range result.Products {
		caption := "🛍️ " + escape(product.Name)
		if product.PhotoRef != "" {
			b.sendPhoto(chatID, product.PhotoRef, caption, openProductKeyboard(product))
		} else {
			b.send(chatID, caption, openProductKeyboard(product))
		}
	}
}

func (b *Bot) showProduct(ctx context.Context, chatID, productID int64) {
	product, err := b.catalog.GetActiveProduct(ctx, productID)
	if err != nil {
		b.fail(chatID, chatID, err)
		return
	}
	sizes, err := b.catalog.ListProductSizes(ctx, productID)
	if err != nil {
		b.fail(chatID, chatID, err)
		return
	}

	text := productText(product, sizes)
	markup := sizesKeyboard(product, sizes)
	if product.PhotoRef != "" {
		b.sendPhoto(chatID, product.PhotoRef, text, markup)
		return
	}
	b.send(chatID, text, markup)
}

// showDescription sends the shared description, attached to its media when
// the text fits into a caption
func (b *Bot) showDescription(ctx context.Context, chatID int64) {
	settings, err := b.settings.Get(ctx)
	if err != nil {
		b.fail(chatID, chatID, err)
		return
	}

	text := descriptionText(settings)
	markup := keyboard(button("👉 Выбрать светильник", cbCatalog))
	if settings.VideoRef == "" && settings.PhotoRef == "" {
		b.send(chatID, text, markup)
		return
	}

	caption, captionMarkup := text, markup
	if !fitsCaption(text) {
		caption, captionMarkup = "", nil
	}
	if settings.VideoRef != "" {
		b.sendVideo(chatID, settings.VideoRef, caption, captionMarkup)
	} else {
		b.sendPhoto(chatID, settings.PhotoRef, caption, captionMarkup)
	}
	if caption == "" {
		b.send(chatID, text, markup)
	}
}

func (b *Bot) showCart(ctx context.Context, chatID, userID int64) {
	session, err := b.checkout.ViewCart(ctx, userID)
	if err != nil {
		b.fail(chatID, userID, err)
		return
	}
	b.renderCart(chatID, session)
}

func (b *Bot) renderCart(chatID int64, session *structs.Session) {
	if len(session.Items) == 0 {
		b.send(chatID, textEmptyCart, keyboard(button("👉 Выбрать светильник", cbCatalog)))
		return
	}
	if session.State == structs.StateAwaitingPayment {
		b.send(chatID, paymentText(session), paymentKeyboard(session.PaymentURL))
		return
	}
	b.send(chatID, cartText(session, b.cfg.Shop), b.cartKeyboard(session))
}
