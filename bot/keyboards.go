package bot

import (
	"fmt"
	"net/url"
	"strconv"

	"karma_server/structs"
	"karma_server/structs/tables"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback payloads. Telegram limits them to 64 bytes.
const (
	cbMain         = "main"
	cbCatalog      = "catalog"
	cbAbout        = "about"
	cbFAQ          = "faq"
	cbFeatures     = "features"
	cbDescription  = "desc"
	cbCart         = "cart"
	cbCartClear    = "cart:clear"
	cbCheckout     = "checkout"
	cbDeliveryMenu = "dlvmenu"
	cbPay          = "pay"
	cbCheck        = "check"
	cbCancel       = "cancel"

	prefixCategory = "cat"
	prefixTitle    = "title"
	prefixProduct  = "prod"
	prefixSize     = "size"
	prefixDelivery = "dlv"
	prefixCartRm   = "cart:rm"
)

func keyboard(rows ...[]tgbotapi.InlineKeyboardButton) *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func button(text, data string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(text, data))
}

// managerLink points at the manager chat with a start tag for the order
func (b *Bot) managerLink(orderID int64) string {
	if b.cfg.Bot.ManagerURL == "" {
		return ""
	}
	u, err := url.Parse(b.cfg.Bot.ManagerURL)
	if err != nil {
		return b.cfg.Bot.ManagerURL
	}
	tag := "iz_bota_ne_oformil"
	if orderID != 0 {
		tag = "tgbot_zakaz_" + strconv.FormatInt(orderID, 10)
	}
	q := u.Query()
	q.Set("start", tag)
	u.RawQuery = q.Encode()
	return u.String()
}

func (b *Bot) managerRow(orderID int64, text string) [][]tgbotapi.InlineKeyboardButton {
	link := b.managerLink(orderID)
	if link == "" {
		return nil
	}
	return [][]tgbotapi.InlineKeyboardButton{tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(text, link))}
}

func (b *Bot) managerKeyboard(orderID int64) *tgbotapi.InlineKeyboardMarkup {
	rows := b.managerRow(orderID, "🧑‍💼 Связаться с менеджером")
	if rows == nil {
		return nil
	}
	return keyboard(rows...)
}

func (b *Bot) mainKeyboard() *tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		button("👉 Выбрать светильник", cbCatalog),
		button("ℹ️ О нас", cbAbout),
		button("❓ Часто задаваемые вопросы", cbFAQ),
		button("🤖 Что умеет этот бот?", cbFeatures),
	}
	if b.cfg.Shop.MultiItemCart {
		rows = append(rows, button("🛒 Корзина", cbCart))
	}
	rows = append(rows, b.managerRow(0, "🧑‍💼 Индивидуальный заказ")...)
	return keyboard(rows...)
}

func backKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(button("🔙 Назад", cbMain))
}

func categoriesKeyboard(categories []tables.Category) *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(categories)+1)
	for _, c := range categories {
		rows = append(rows, button("📂 "+c.Name, fmt.Sprintf("%s:%d", prefixCategory, c.ID)))
	}
	rows = append(rows, button("🔙 Главное меню", cbMain))
	return keyboard(rows...)
}

func titlesKeyboard(titles []tables.Title) *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(titles)+1)
	for _, t := range titles {
		rows = append(rows, button("📖 "+t.Name, fmt.Sprintf("%s:%d:1", prefixTitle, t.ID)))
	}
	rows = append(rows, button("🔙 К категориям", cbCatalog))
	return keyboard(rows...)
}

func productsNavKeyboard(title *tables.Title, page *structs.ProductPage) *tgbotapi.InlineKeyboardMarkup {
	var nav []tgbotapi.InlineKeyboardButton
	if page.Page > 1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Предыдущая", fmt.Sprintf("%s:%d:%d", prefixTitle, title.ID, page.Page-1)))
	}
	if page.Page < page.TotalPages {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("➡️ Следующая", fmt.Sprintf("%s:%d:%d", prefixTitle, title.ID, page.Page+1)))
	}
	rows := [][]tgbotapi.InlineKeyboardButton{}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, button("🔙 К тайтлам", fmt.Sprintf("%s:%d", prefixCategory, title.CategoryID)))
	return keyboard(rows...)
}

func openProductKeyboard(product tables.Product) *tgbotapi.InlineKeyboardMarkup {
	return keyboard(button("📦 Открыть размеры", fmt.Sprintf("%s:%d", prefixProduct, product.ID)))
}

func sizesKeyboard(product *tables.Product, sizes []structs.SizeOption) *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(sizes)+2)
	for _, s := range sizes {
		rows = append(rows, button(fmt.Sprintf("📏 %s - %s", s.Name, money(s.Price)), fmt.Sprintf("%s:%d:%d", prefixSize, product.ID, s.SizeID)))
	}
	rows = append(rows,
		button("📖 Подробнее о товаре", cbDescription),
		button("🔙 К товарам", fmt.Sprintf("%s:%d:1", prefixTitle, product.TitleID)),
	)
	return keyboard(rows...)
}

func (b *Bot) cartKeyboard(session *structs.Session) *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(session.Items)+4)
	for i, item := range session.Items {
		rows = append(rows, button(fmt.Sprintf("❌ %d. %s · %s", i+1, item.ProductName, item.SizeName), fmt.Sprintf("%s:%d", prefixCartRm, i)))
	}
	rows = append(rows,
		button("✅ Оформить заказ", cbCheckout),
		button("👉 Продолжить покупки", cbCatalog),
		button("🧹 Очистить корзину", cbCartClear),
		button("🔙 Главное меню", cbMain),
	)
	return keyboard(rows...)
}

func (b *Bot) addedKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(
		button("✅ Оформить заказ", cbCheckout),
		button("🛒 Корзина", cbCart),
		button("👉 Продолжить покупки", cbCatalog),
	)
}

func cancelKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(button("❌ Отменить заказ", cbCancel))
}

func deliveryKeyboard(methods []structs.DeliveryMethod) *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(methods)+2)
	for _, m := range methods {
		rows = append(rows, button(fmt.Sprintf("🚚 %s - %s", m.Label, money(m.Price)), prefixDelivery+":"+m.Code))
	}
	rows = append(rows,
		button("❌ Отменить заказ", cbCancel),
		button("🔙 Главное меню", cbMain),
	)
	return keyboard(rows...)
}

func (b *Bot) confirmKeyboard() *tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		button("💳 Оплатить", cbPay),
		button("🔙 Изменить доставку", cbDeliveryMenu),
		button("❌ Отменить заказ", cbCancel),
		button("🔙 Главное меню", cbMain),
	}
	rows = append(rows, b.managerRow(0, "🧑‍💼 Индивидуальный заказ")...)
	return keyboard(rows...)
}

func paymentKeyboard(paymentURL string) *tgbotapi.InlineKeyboardMarkup {
	return keyboard(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("💳 Оплатить", paymentURL)),
		button("✅ Я оплатил", cbCheck),
		button("❌ Отменить заказ", cbCancel),
	)
}
