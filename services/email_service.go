package services

import (
	"fmt"
	"html"
	"strings"

	"karma_server/structs"
	"karma_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/resend/resend-go/v3"
)

type EmailService struct {
	logger *gecho.Logger
	cfg    *structs.EmailConfig
	shop   *structs.ShopConfig
	client *resend.Client
}

// NewEmailService returns a service that silently skips sending when no API
// key or recipients are configured.
func NewEmailService(logger *gecho.Logger, cfg *structs.Config) *EmailService {
	es := &EmailService{
		logger: logger,
		cfg:    cfg.Email,
		shop:   cfg.Shop,
	}
	if cfg.Email.ApiKey != "" {
		es.client = resend.NewClient(cfg.Email.ApiKey)
	}
	return es
}

func (es *EmailService) Enabled() bool {
	return es.client != nil && len(es.cfg.Recipients) > 0
}

func (es *EmailService) SendEmail(to []string, subject string, body string) error {
	if es.client == nil {
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    es.cfg.From,
		To:      to,
		Html:    body,
		Subject: subject,
	}

	_, err := es.client.Emails.Send(params)
	if err != nil {
		es.logger.Error("Failed to send email", gecho.Field("error", err), gecho.Field("to", to))
		return err
	}

	return nil
}

// SendOrderPaidEmail tells the operators that an order has been paid and is
// ready to be fulfilled
func (es *EmailService) SendOrderPaidEmail(order *tables.Order) error {
	if !es.Enabled() {
		return nil
	}

	var items strings.Builder
	for _, item := range order.Items {
		fmt.Fprintf(&items, "<li>%s, %s: %s %s</li>",
			html.EscapeString(item.ProductName),
			html.EscapeString(item.SizeName),
			DisplayPrice(item.Price),
			es.shop.Currency,
		)
	}

	customer := "не указаны"
	if len(order.Items) > 0 && order.Items[0].CustomerName != "" {
		first := order.Items[0]
		customer = fmt.Sprintf("%s<br>%s<br>%s",
			html.EscapeString(first.CustomerName),
			html.EscapeString(first.CustomerPhone),
			html.EscapeString(first.CustomerAddress),
		)
	}

	username := "-"
	if order.Username != "" {
		username = "@" + html.EscapeString(order.Username)
	}

	emailBody := fmt.Sprintf(`
		<!DOCTYPE html>
		<html>
		<head>
			<meta charset="UTF-8">
			<style>
				body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
				.container { max-width: 600px; margin: 0 auto; padding: 20px; }
				.header { background-color: #222; color: white; padding: 20px; text-align: center; }
				.content { padding: 20px; background-color: #f9f9f9; }
				.order-details { background-color: white; padding: 15px; margin: 15px 0; border-radius: 5px; }
				ul { list-style-type: none; padding: 0; }
				li { padding: 5px 0; border-bottom: 1px solid #eee; }
			</style>
		</head>
		<body>
			<div class="container">
				<div class="header">
					<h1>Заказ #%d оплачен</h1>
				</div>
				<div class="content">
					<div class="order-details">
						<p>Покупатель: %s (id %d)</p>
						<h4>Товары:</h4>
						<ul>%s</ul>
						<p>Доставка: %s, %s %s</p>
						<p>Скидка: %s %s</p>
						<p><strong>Итого: %s %s</strong></p>
						<h4>Данные получателя:</h4>
						<p>%s</p>
					</div>
					<p>Платёж: %s</p>
				</div>
			</div>
		</body>
		</html>
	`, order.ID, username, order.UserID, items.String(),
		html.EscapeString(order.DeliveryMethod), DisplayPrice(order.DeliveryPrice), es.shop.Currency,
		DisplayPrice(order.DiscountAmount), es.shop.Currency,
		DisplayPrice(order.TotalPrice), es.shop.Currency,
		customer, html.EscapeString(order.PaymentID))

	subject := fmt.Sprintf("%s: заказ #%d оплачен", es.shop.Name, order.ID)

	return es.SendEmail(es.cfg.Recipients, subject, emailBody)
}
