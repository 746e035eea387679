package bot

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"karma_server/services"
	"karma_server/structs"
	"karma_server/structs/tables"

	"github.com/shopspring/decimal"
)

// captionLimit is Telegram's maximum media caption length
const captionLimit = 1024

const (
	textGenericError    = "❌ Что-то пошло не так. Попробуйте ещё раз."
	textTooManyRequests = "⏳ Слишком много запросов. Подождите минутку."
	textUseMenu         = "Воспользуйтесь кнопками меню 👇"
	textForbidden       = "❌ У вас нет прав администратора."

	textAbout = "Мы команда мастеров, которые превращают ваши любимые арты и героев в уникальные светильники 🌙\n\n" +
		"Каждый ночник мы делаем вручную, с вниманием к деталям.\n" +
		"🎨 Индивидуальный дизайн\n" +
		"⚡ Качественные материалы\n" +
		"🚚 Доставка по всей России и СНГ\n\n" +
		"У нас более 1000 довольных клиентов, и мы рады создать что-то и для вас!"

	textFAQ = "❓ <b>Часто задаваемые вопросы</b>\n\n" +
		"<b>Как оформить заказ?</b>\n" +
		"Всё просто: выбираете товар, бот помогает с доставкой, вы получаете ссылку на оплату.\n\n" +
		"<b>Какие есть варианты доставки?</b>\n" +
		"Почта России и СДЭК, стоимость бот покажет сразу.\n\n" +
		"<b>Можно ли сделать по моему арту?</b>\n" +
		"Конечно! Мы любим кастомные заказы ❤️"

	textFeatures = "Я помогу вам:\n" +
		"✨ выбрать подходящий ночник\n" +
		"✨ рассчитать доставку в ваш город\n" +
		"✨ оформить заказ со скидкой\n" +
		"✨ и даже оплатить онлайн\n\n" +
		"Всё быстро, удобно и без лишних шагов 🚀"

	textChooseCategory = "📂 Выберите категорию:\n\nЗдесь вы найдёте ночники разных тематик и стилей."
	textNoCategories   = "Каталог пока пуст. Загляните чуть позже!"
	textNoProducts     = "В этом разделе пока нет товаров."
	textEmptyCart      = "🛒 Корзина пуста. Выберите товар в каталоге."
	textCartCleared    = "🧹 Корзина очищена."

	textAskName    = "👤 Введите имя и фамилию получателя:"
	textAskPhone   = "📞 Введите номер телефона в формате +7XXXXXXXXXX или 8XXXXXXXXXX:"
	textAskAddress = "🏠 Введите адрес доставки: город, улица, дом, квартира и индекс."

	textBadName    = "❌ Укажите имя и фамилию через пробел."
	textBadPhone   = "❌ Номер должен начинаться с +7 или 8 и содержать только цифры."
	textBadAddress = "❌ Адрес слишком короткий, укажите не меньше 10 символов."

	textNotPaidYet = "⏳ Оплата ещё не найдена. Если вы уже оплатили, подождите минутку и нажмите кнопку снова."
	textCancelled  = "❌ Заказ отменён\n\nЕсли передумаете, всегда можете начать заново!"
)

func welcomeText(shop *structs.ShopConfig) string {
	return fmt.Sprintf("Привет 👋\n"+
		"Добро пожаловать в <b>%s</b>! Мы создаём индивидуальные ночники и настенные панели по любым вашим любимым героям ✨\n\n"+
		"Заказывая здесь, в боте, вы получаете <b>скидку %s%%</b>, ведь мы экономим время менеджера 😉\n\n"+
		"Выберите, что интересно:",
		html.EscapeString(shop.Name), shop.DiscountPercent.String())
}

func money(amount decimal.Decimal) string {
	return services.DisplayPrice(amount) + " ₽"
}

func itemLine(item tables.OrderItem) string {
	return fmt.Sprintf("• %s · %s\n  Цена: %s", html.EscapeString(item.ProductName), html.EscapeString(item.SizeName), money(item.Price))
}

// selectionText lists the cart with subtotal and discount
func selectionText(session *structs.Session, shop *structs.ShopConfig) string {
	var sb strings.Builder
	sb.WriteString("Вы выбрали:\n\n")
	for _, item := range session.Items {
		sb.WriteString(itemLine(item))
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\n💰 Итого товаров: %s\n", money(session.Subtotal))
	fmt.Fprintf(&sb, "🎁 Скидка %s%%: -%s", shop.DiscountPercent.String(), money(session.Discount))
	return sb.String()
}

func cartText(session *structs.Session, shop *structs.ShopConfig) string {
	var sb strings.Builder
	sb.WriteString("🛒 <b>Корзина</b>\n\n")
	for i, item := range session.Items {
		fmt.Fprintf(&sb, "%d. %s · %s, %s\n", i+1, html.EscapeString(item.ProductName), html.EscapeString(item.SizeName), money(item.Price))
	}
	fmt.Fprintf(&sb, "\n💰 Итого товаров: %s\n", money(session.Subtotal))
	fmt.Fprintf(&sb, "🎁 Скидка %s%%: -%s", shop.DiscountPercent.String(), money(session.Discount))
	return sb.String()
}

func deliveryText(methods []structs.DeliveryMethod) string {
	var sb strings.Builder
	sb.WriteString("🚚 <b>Варианты доставки</b>\n\n")
	for _, m := range methods {
		fmt.Fprintf(&sb, "• %s: %s\n", html.EscapeString(m.Label), money(m.Price))
	}
	sb.WriteString("\nВыберите удобный вариант 👇")
	return sb.String()
}

func orderSummaryText(session *structs.Session) string {
	var sb strings.Builder
	sb.WriteString("Ваш заказ готов ✅\n\n")
	for _, item := range session.Items {
		fmt.Fprintf(&sb, "Товар: %s · %s\n", html.EscapeString(item.ProductName), html.EscapeString(item.SizeName))
	}
	fmt.Fprintf(&sb, "Стоимость: %s\n", money(session.Subtotal))
	fmt.Fprintf(&sb, "Скидка: -%s\n", money(session.Discount))
	fmt.Fprintf(&sb, "Доставка: %s · %s\n", html.EscapeString(session.DeliveryLabel), money(session.DeliveryPrice))
	if session.Customer.Name != "" {
		fmt.Fprintf(&sb, "Получатель: %s, %s\n", html.EscapeString(session.Customer.Name), html.EscapeString(session.Customer.Phone))
		fmt.Fprintf(&sb, "Адрес: %s\n", html.EscapeString(session.Customer.Address))
	}
	sb.WriteString("-------------------\n")
	fmt.Fprintf(&sb, "Итого к оплате: <b>%s</b>\n\n", money(session.FinalPrice))
	sb.WriteString("💳 Оплатите заказ по кнопке ниже, и мы сразу запустим его в производство ✨")
	return sb.String()
}

func paymentText(session *structs.Session) string {
	return fmt.Sprintf("💳 Оплата заказа #%d\n\n"+
		"Сумма к оплате: <b>%s</b>\n\n"+
		"Нажмите на кнопку ниже для перехода к оплате, затем вернитесь и нажмите «Я оплатил».",
		session.OrderID, money(session.FinalPrice))
}

func paidText(orderID int64, managerLink string) string {
	text := fmt.Sprintf("Спасибо за заказ ❤️\nВаш ночник уже взяли в работу. Номер заказа: %d", orderID)
	if managerLink != "" {
		text += "\n\nПерейдите, пожалуйста, по ссылке, чтобы наш менеджер подтвердил ваш заказ:\n\n" + managerLink
	}
	return text
}

func productsHeader(title *tables.Title, page *structs.ProductPage) string {
	return fmt.Sprintf("📖 <b>%s</b>\nСтраница %d из %d, товаров: %d",
		html.EscapeString(title.Name), page.Page, max(page.TotalPages, 1), page.Total)
}

func productText(product *tables.Product, sizes []structs.SizeOption) string {
	if len(sizes) == 0 {
		return fmt.Sprintf("🛍️ %s\n\n❌ У этого товара пока нет доступных размеров.", html.EscapeString(product.Name))
	}
	return fmt.Sprintf("🛍️ %s\n\n📏 Выберите размер:", html.EscapeString(product.Name))
}

// descriptionText hides the shared description behind a spoiler
func descriptionText(settings *tables.Settings) string {
	return "<b>Подробнее о наших ночниках</b>\n<span class=\"tg-spoiler\">" + html.EscapeString(settings.DescriptionText) + "</span>"
}

func escape(s string) string {
	return html.EscapeString(s)
}

func fitsCaption(text string) bool {
	return utf8.RuneCountInString(text) <= captionLimit
}
