package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"karma_server/lib"
	"karma_server/structs/tables"

	"github.com/MonkyMars/gecho"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// adminCommand runs with the raw argument string and returns the reply
type adminCommand struct {
	usage string
	run   func(ctx context.Context, actorID int64, args string) (string, error)
}

func (b *Bot) adminCommands() map[string]adminCommand {
	return map[string]adminCommand{
		"admin": {"", func(context.Context, int64, string) (string, error) { return adminHelp, nil }},
		"token": {"", b.cmdToken},

		"orders":    {"/orders [кол-во]", b.cmdOrders},
		"order":     {"/order <id>", b.cmdOrder},
		"setstatus": {"/setstatus <id> <shipped|delivered|cancelled>", b.cmdSetStatus},
		"stats":     {"", b.cmdStats},

		"categories": {"", b.cmdCategories},
		"addcat":     {"/addcat <название>", b.cmdAddCategory},
		"renamecat":  {"/renamecat <id> <название>", b.cmdRenameCategory},
		"delcat":     {"/delcat <id>", b.cmdDeleteCategory},

		"titles":      {"/titles <id категории>", b.cmdTitles},
		"addtitle":    {"/addtitle <id категории> <название>", b.cmdAddTitle},
		"renametitle": {"/renametitle <id> <название>", b.cmdRenameTitle},
		"deltitle":    {"/deltitle <id>", b.cmdDeleteTitle},

		"products":      {"/products <id тайтла>", b.cmdProducts},
		"addproduct":    {"/addproduct <id тайтла> <название>", b.cmdAddProduct},
		"renameproduct": {"/renameproduct <id> <название>", b.cmdRenameProduct},
		"toggleproduct": {"/toggleproduct <id>", b.cmdToggleProduct},
		"delproduct":    {"/delproduct <id>", b.cmdDeleteProduct},

		"sizes":      {"", b.cmdSizes},
		"addsize":    {"/addsize <цена> <название>", b.cmdAddSize},
		"renamesize": {"/renamesize <id> <название>", b.cmdRenameSize},
		"price":      {"/price <id размера> <цена>", b.cmdPrice},
		"delsize":    {"/delsize <id>", b.cmdDeleteSize},
		"seedsizes":  {"", b.cmdSeedSizes},
		"link":       {"/link <id товара> <id размера>", b.cmdLink},
		"unlink":     {"/unlink <id товара> <id размера>", b.cmdUnlink},

		"setdesc":    {"/setdesc <текст>", b.cmdSetDescription},
		"clearmedia": {"", b.cmdClearMedia},
	}
}

const adminHelp = "🛠 <b>Админ-панель</b>\n\n" +
	"<b>Заказы</b>\n/orders [кол-во], /order &lt;id&gt;, /setstatus &lt;id&gt; &lt;статус&gt;, /stats\n\n" +
	"<b>Категории</b>\n/categories, /addcat, /renamecat, /delcat\n\n" +
	"<b>Тайтлы</b>\n/titles &lt;id категории&gt;, /addtitle, /renametitle, /deltitle\n\n" +
	"<b>Товары</b>\n/products &lt;id тайтла&gt;, /addproduct, /renameproduct, /toggleproduct, /delproduct\n" +
	"Фото товара: отправьте фото с подписью /setphoto &lt;id&gt;\n\n" +
	"<b>Размеры</b>\n/sizes, /addsize &lt;цена&gt; &lt;название&gt;, /renamesize, /price, /delsize, /seedsizes, /link, /unlink\n\n" +
	"<b>Описание</b>\n/setdesc &lt;текст&gt;, /clearmedia\n" +
	"Фото или видео: отправьте с подписью /descphoto или /descvideo\n\n" +
	"<b>API</b>\n/token: токен для HTTP API"

// handleAdminCommand reports false when command is not an admin command
func (b *Bot) handleAdminCommand(ctx context.Context, chatID, userID int64, command, args string) bool {
	cmd, ok := b.adminCommands()[command]
	if !ok {
		return false
	}
	if !b.admin.IsAdmin(userID) {
		b.logger.Warn("Admin command from non-admin", gecho.Field("user_id", userID), gecho.Field("command", command))
		b.send(chatID, textForbidden, nil)
		return true
	}

	reply, err := cmd.run(ctx, userID, strings.TrimSpace(args))
	if err != nil {
		if !isExpected(err) {
			b.logger.Error("Admin command failed", gecho.Field("error", err), gecho.Field("command", command))
		}
		msg := adminMessage(err)
		if cmd.usage != "" && isUsageError(err) {
			msg += "\n\nИспользование: " + escape(cmd.usage)
		}
		b.send(chatID, msg, nil)
		return true
	}
	b.send(chatID, reply, nil)
	return true
}

// handleMedia handles photos and videos captioned with an admin command
func (b *Bot) handleMedia(ctx context.Context, msg *tgbotapi.Message) {
	command, args := splitCaption(msg.Caption)
	if command == "" {
		b.send(msg.Chat.ID, textUseMenu, b.mainKeyboard())
		return
	}
	if !b.admin.IsAdmin(msg.From.ID) {
		b.send(msg.Chat.ID, textForbidden, nil)
		return
	}

	var (
		reply string
		err   error
	)
	actorID := msg.From.ID
	switch {
	case command == "setphoto" && len(msg.Photo) > 0:
		var id int64
		if id, err = parseArgID(args); err == nil {
			if err = b.admin.SetProductPhoto(ctx, actorID, id, largestPhoto(msg.Photo)); err == nil {
				reply = fmt.Sprintf("✅ Фото товара %d обновлено.", id)
			}
		}
	case command == "descphoto" && len(msg.Photo) > 0:
		if _, err = b.admin.SetDescriptionPhoto(ctx, actorID, largestPhoto(msg.Photo)); err == nil {
			reply = "✅ Фото для описания установлено."
		}
	case command == "descvideo" && msg.Video != nil:
		if _, err = b.admin.SetDescriptionVideo(ctx, actorID, msg.Video.FileID); err == nil {
			reply = "✅ Видео для описания установлено."
		}
	default:
		reply = "Подпись не распознана. Используйте /setphoto &lt;id&gt;, /descphoto или /descvideo."
	}

	if err != nil {
		b.send(msg.Chat.ID, adminMessage(err), nil)
		return
	}
	b.send(msg.Chat.ID, reply, nil)
}

// splitCaption parses "/command@bot args" from a media caption
func splitCaption(caption string) (string, string) {
	caption = strings.TrimSpace(caption)
	if !strings.HasPrefix(caption, "/") {
		return "", ""
	}
	command, args, _ := strings.Cut(caption[1:], " ")
	command, _, _ = strings.Cut(command, "@")
	return strings.ToLower(command), strings.TrimSpace(args)
}

func largestPhoto(photos []tgbotapi.PhotoSize) string {
	return photos[len(photos)-1].FileID
}

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }
func (e *usageError) Unwrap() error { return lib.ErrValidation }

func isUsageError(err error) bool {
	var ue *usageError
	return errors.As(err, &ue)
}

func parseArgID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 1 {
		return 0, &usageError{msg: fmt.Sprintf("invalid id %q", raw)}
	}
	return id, nil
}

// idAndRest splits "<id> <text>" arguments
func idAndRest(args string) (int64, string, error) {
	head, rest, _ := strings.Cut(args, " ")
	id, err := parseArgID(head)
	if err != nil {
		return 0, "", err
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return 0, "", &usageError{msg: "missing value"}
	}
	return id, rest, nil
}

func twoIDs(args string) (int64, int64, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return 0, 0, &usageError{msg: "expected two ids"}
	}
	first, err := parseArgID(fields[0])
	if err != nil {
		return 0, 0, err
	}
	second, err := parseArgID(fields[1])
	if err != nil {
		return 0, 0, err
	}
	return first, second, nil
}

func requireText(args string) (string, error) {
	if args == "" {
		return "", &usageError{msg: "missing value"}
	}
	return args, nil
}

// --- Orders ---

func (b *Bot) cmdToken(_ context.Context, actorID int64, _ string) (string, error) {
	token, err := b.admin.IssueToken(actorID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("🔑 Токен для HTTP API, действует до %s:\n<code>%s</code>",
		token.ExpiresAt.Format("02.01.2006 15:04"), escape(token.AccessToken)), nil
}

func (b *Bot) cmdOrders(ctx context.Context, actorID int64, args string) (string, error) {
	limit := 10
	if args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n < 1 {
			return "", &usageError{msg: fmt.Sprintf("invalid limit %q", args)}
		}
		limit = n
	}

	orders, err := b.admin.ListOrders(ctx, actorID, limit)
	if err != nil {
		return "", err
	}
	if len(orders) == 0 {
		return "Заказов пока нет.", nil
	}

	var sb strings.Builder
	sb.WriteString("📦 <b>Последние заказы</b>\n\n")
	for _, o := range orders {
		fmt.Fprintf(&sb, "#%d · %s · %s · %s\n", o.ID, o.Status, money(o.TotalPrice), o.CreatedAt.Format("02.01.2006 15:04"))
		if o.Username != "" {
			fmt.Fprintf(&sb, "   @%s\n", escape(o.Username))
		}
	}
	return sb.String(), nil
}

func (b *Bot) cmdOrder(ctx context.Context, actorID int64, args string) (string, error) {
	id, err := parseArgID(args)
	if err != nil {
		return "", err
	}
	order, err := b.admin.GetOrder(ctx, actorID, id)
	if err != nil {
		return "", err
	}
	return orderDetails(order), nil
}

func orderDetails(order *tables.Order) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📦 <b>Заказ #%d</b> · %s\n", order.ID, order.Status)
	fmt.Fprintf(&sb, "Покупатель: %d", order.UserID)
	if order.Username != "" {
		fmt.Fprintf(&sb, " (@%s)", escape(order.Username))
	}
	sb.WriteString("\n\n")
	for _, item := range order.Items {
		sb.WriteString(itemLine(item))
		sb.WriteString("\n")
	}
	if len(order.Items) > 0 && order.Items[0].CustomerName != "" {
		first := order.Items[0]
		fmt.Fprintf(&sb, "\nПолучатель: %s, %s\nАдрес: %s\n",
			escape(first.CustomerName), escape(first.CustomerPhone), escape(first.CustomerAddress))
	}
	fmt.Fprintf(&sb, "\nДоставка: %s · %s\n", escape(order.DeliveryMethod), money(order.DeliveryPrice))
	fmt.Fprintf(&sb, "Скидка: -%s\n", money(order.DiscountAmount))
	fmt.Fprintf(&sb, "Итого: <b>%s</b>\n", money(order.TotalPrice))
	if order.PaymentID != "" {
		fmt.Fprintf(&sb, "Платёж: <code>%s</code>\n", escape(order.PaymentID))
	}
	fmt.Fprintf(&sb, "Создан: %s", order.CreatedAt.Format("02.01.2006 15:04"))
	return sb.String()
}

func (b *Bot) cmdSetStatus(ctx context.Context, actorID int64, args string) (string, error) {
	id, rest, err := idAndRest(args)
	if err != nil {
		return "", err
	}
	status := tables.OrderStatus(strings.ToLower(rest))
	if err := b.admin.UpdateOrderStatus(ctx, actorID, id, status); err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Заказ #%d: %s", id, status), nil
}

func (b *Bot) cmdStats(ctx context.Context, actorID int64, _ string) (string, error) {
	stats, err := b.admin.Stats(ctx, actorID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("📊 <b>Статистика</b>\n\n"+
		"Категорий: %d\nТайтлов: %d\nТоваров: %d\nРазмеров: %d\n\n"+
		"Заказов: %d\nОплаченных: %d\nВыручка: %s",
		stats.Categories, stats.Titles, stats.Products, stats.Sizes,
		stats.Orders, stats.PaidOrders, money(stats.PaidRevenue)), nil
}

// --- Categories and titles ---

func (b *Bot) cmdCategories(ctx context.Context, _ int64, _ string) (string, error) {
	categories, err := b.catalog.ListCategories(ctx)
	if err != nil {
		return "", err
	}
	if len(categories) == 0 {
		return "Категорий пока нет. Добавьте: /addcat &lt;название&gt;", nil
	}
	var sb strings.Builder
	sb.WriteString("📂 <b>Категории</b>\n\n")
	for _, c := range categories {
		fmt.Fprintf(&sb, "%d. %s\n", c.ID, escape(c.Name))
	}
	return sb.String(), nil
}

func (b *Bot) cmdAddCategory(ctx context.Context, actorID int64, args string) (string, error) {
	name, err := requireText(args)
	if err != nil {
		return "", err
	}
	category, err := b.admin.CreateCategory(ctx, actorID, name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Категория «%s» добавлена, id %d.", escape(category.Name), category.ID), nil
}

func (b *Bot) cmdRenameCategory(ctx context.Context, actorID int64, args string) (string, error) {
	id, name, err := idAndRest(args)
	if err != nil {
		return "", err
	}
	if err := b.admin.RenameCategory(ctx, actorID, id, name); err != nil {
		return "", err
	}
	return "✅ Категория переименована.", nil
}

func (b *Bot) cmdDeleteCategory(ctx context.Context, actorID int64, args string) (string, error) {
	id, err := parseArgID(args)
	if err != nil {
		return "", err
	}
	if err := b.admin.DeleteCategory(ctx, actorID, id); err != nil {
		return "", err
	}
	return "🗑 Категория удалена вместе с тайтлами и товарами.", nil
}

func (b *Bot) cmdTitles(ctx context.Context, _ int64, args string) (string, error) {
	categoryID, err := parseArgID(args)
	if err != nil {
		return "", err
	}
	titles, err := b.catalog.ListTitles(ctx, categoryID)
	if err != nil {
		return "", err
	}
	if len(titles) == 0 {
		return "В категории нет тайтлов.", nil
	}
	var sb strings.Builder
	sb.WriteString("📖 <b>Тайтлы</b>\n\n")
	for _, t := range titles {
		fmt.Fprintf(&sb, "%d. %s\n", t.ID, escape(t.Name))
	}
	return sb.String(), nil
}

func (b *Bot) cmdAddTitle(ctx context.Context, actorID int64, args string) (string, error) {
	categoryID, name, err := idAndRest(args)
	if err != nil {
		return "", err
	}
	title, err := b.admin.CreateTitle(ctx, actorID, categoryID, name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Тайтл «%s» добавлен, id %d.", escape(title.Name), title.ID), nil
}

func (b *Bot) cmdRenameTitle(ctx context.Context, actorID int64, args string) (string, error) {
	id, name, err := idAndRest(args)
	if err != nil {
		return "", err
	}
	if err := b.admin.RenameTitle(ctx, actorID, id, name); err != nil {
		return "", err
	}
	return "✅ Тайтл переименован.", nil
}

func (b *Bot) cmdDeleteTitle(ctx context.Context, actorID int64, args string) (string, error) {
	id, err := parseArgID(args)
	if err != nil {
		return "", err
	}
	if err := b.admin.DeleteTitle(ctx, actorID, id); err != nil {
		return "", err
	}
	return "🗑 Тайтл удалён вместе с товарами.", nil
}

// --- Products ---

func (b *Bot) cmdProducts(ctx context.Context, actorID int64, args string) (string, error) {
	titleID, err := parseArgID(args)
	if err != nil {
		return "", err
	}
	products, err := b.admin.ListProducts(ctx, actorID, titleID)
	if err != nil {
		return "", err
	}
	if len(products) == 0 {
		return "В тайтле нет товаров.", nil
	}
	var sb strings.Builder
	sb.WriteString("🛍️ <b>Товары</b>\n\n")
	for _, p := range products {
		state := "✅"
		if !p.IsActive {
			state = "🚫"
		}
		fmt.Fprintf(&sb, "%s %d. %s\n", state, p.ID, escape(p.Name))
	}
	return sb.String(), nil
}

func (b *Bot) cmdAddProduct(ctx context.Context, actorID int64, args string) (string, error) {
	titleID, name, err := idAndRest(args)
	if err != nil {
		return "", err
	}
	product, err := b.admin.CreateProduct(ctx, actorID, titleID, name, "")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Товар «%s» добавлен, id %d. Он доступен во всех размерах.\nФото: отправьте картинку с подписью /setphoto %d",
		escape(product.Name), product.ID, product.ID), nil
}

func (b *Bot) cmdRenameProduct(ctx context.Context, actorID int64, args string) (string, error) {
	id, name, err := idAndRest(args)
	if err != nil {
		return "", err
	}
	if err := b.admin.RenameProduct(ctx, actorID, id, name); err != nil {
		return "", err
	}
	return "✅ Товар переименован.", nil
}

func (b *Bot) cmdToggleProduct(ctx context.Context, actorID int64, args string) (string, error) {
	id, err := parseArgID(args)
	if err != nil {
		return "", err
	}
	active, err := b.admin.ToggleProductActive(ctx, actorID, id)
	if err != nil {
		return "", err
	}
	if active {
		return "✅ Товар снова показывается покупателям.", nil
	}
	return "🚫 Товар скрыт от покупателей.", nil
}

func (b *Bot) cmdDeleteProduct(ctx context.Context, actorID int64, args string) (string, error) {
	id, err := parseArgID(args)
	if err != nil {
		return "", err
	}
	if err := b.admin.DeleteProduct(ctx, actorID, id); err != nil {
		return "", err
	}
	return "🗑 Товар удалён.", nil
}

// --- Sizes ---

func (b *Bot) cmdSizes(ctx context.Context, actorID int64, _ string) (string, error) {
	sizes, err := b.admin.ListSizes(ctx, actorID)
	if err != nil {
		return "", err
	}
	if len(sizes) == 0 {
		return "Размеров пока нет. Добавьте: /addsize &lt;цена&gt; &lt;название&gt; или /seedsizes", nil
	}
	var sb strings.Builder
	sb.WriteString("📏 <b>Размеры</b>\n\n")
	for _, s := range sizes {
		fmt.Fprintf(&sb, "%d. %s · %s\n", s.ID, escape(s.Name), money(s.Price))
	}
	return sb.String(), nil
}

func (b *Bot) cmdAddSize(ctx context.Context, actorID int64, args string) (string, error) {
	rawPrice, name, _ := strings.Cut(args, " ")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &usageError{msg: "missing size name"}
	}
	price, err := lib.ParsePrice(rawPrice)
	if err != nil {
		return "", err
	}
	size, err := b.admin.CreateSize(ctx, actorID, name, price)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Размер «%s» за %s добавлен ко всем товарам, id %d.", escape(size.Name), money(size.Price), size.ID), nil
}

func (b *Bot) cmdRenameSize(ctx context.Context, actorID int64, args string) (string, error) {
	id, name, err := idAndRest(args)
	if err != nil {
		return "", err
	}
	if err := b.admin.RenameSize(ctx, actorID, id, name); err != nil {
		return "", err
	}
	return "✅ Размер переименован.", nil
}

func (b *Bot) cmdPrice(ctx context.Context, actorID int64, args string) (string, error) {
	id, rawPrice, err := idAndRest(args)
	if err != nil {
		return "", err
	}
	price, err := lib.ParsePrice(rawPrice)
	if err != nil {
		return "", err
	}
	if err := b.admin.UpdateSizePrice(ctx, actorID, id, price); err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Новая цена: %s", money(price)), nil
}

func (b *Bot) cmdDeleteSize(ctx context.Context, actorID int64, args string) (string, error) {
	id, err := parseArgID(args)
	if err != nil {
		return "", err
	}
	if err := b.admin.DeleteSize(ctx, actorID, id); err != nil {
		return "", err
	}
	return "🗑 Размер удалён у всех товаров.", nil
}

func (b *Bot) cmdSeedSizes(ctx context.Context, actorID int64, _ string) (string, error) {
	created, err := b.admin.SeedDefaultSizes(ctx, actorID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Добавлено стандартных размеров: %d", created), nil
}

func (b *Bot) cmdLink(ctx context.Context, actorID int64, args string) (string, error) {
	productID, sizeID, err := twoIDs(args)
	if err != nil {
		return "", err
	}
	if err := b.admin.LinkProductSize(ctx, actorID, productID, sizeID); err != nil {
		return "", err
	}
	return "🔗 Размер привязан к товару.", nil
}

func (b *Bot) cmdUnlink(ctx context.Context, actorID int64, args string) (string, error) {
	productID, sizeID, err := twoIDs(args)
	if err != nil {
		return "", err
	}
	if err := b.admin.UnlinkProductSize(ctx, actorID, productID, sizeID); err != nil {
		return "", err
	}
	return "✂️ Размер отвязан от товара.", nil
}

// --- Description ---

func (b *Bot) cmdSetDescription(ctx context.Context, actorID int64, args string) (string, error) {
	text, err := requireText(args)
	if err != nil {
		return "", err
	}
	if _, err := b.admin.UpdateDescription(ctx, actorID, text); err != nil {
		return "", err
	}
	return "✅ Текст описания обновлён.", nil
}

func (b *Bot) cmdClearMedia(ctx context.Context, actorID int64, _ string) (string, error) {
	if _, err := b.admin.ClearDescriptionMedia(ctx, actorID); err != nil {
		return "", err
	}
	return "🗑 Фото и видео описания удалены.", nil
}
