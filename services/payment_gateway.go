package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"karma_server/lib"
	"karma_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/shopspring/decimal"
)

// PaymentGateway creates remote payments and reads their status
type PaymentGateway interface {
	CreatePayment(ctx context.Context, amount decimal.Decimal, description, idempotencyKey string) (*structs.Payment, error)
	GetPaymentStatus(ctx context.Context, paymentID string) (structs.PaymentStatus, error)
}

// YooKassaGateway talks to the YooKassa v3 REST API
type YooKassaGateway struct {
	logger     *gecho.Logger
	cfg        *structs.PaymentConfig
	currency   string
	httpClient *http.Client
}

func NewYooKassaGateway(logger *gecho.Logger, cfg *structs.Config) *YooKassaGateway {
	return &YooKassaGateway{
		logger:     logger,
		cfg:        cfg.Payment,
		currency:   cfg.Shop.Currency,
		httpClient: &http.Client{},
	}
}

type yooAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type yooConfirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

type yooPaymentRequest struct {
	Amount       yooAmount       `json:"amount"`
	Confirmation yooConfirmation `json:"confirmation"`
	Capture      bool            `json:"capture"`
	Description  string          `json:"description"`
}

type yooPayment struct {
	ID           string          `json:"id"`
	Status       string          `json:"status"`
	Confirmation yooConfirmation `json:"confirmation"`
}

type yooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// statusError is a non-2xx answer from the gateway
type statusError struct {
	code int
	body yooError
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s %s", e.code, e.body.Code, e.body.Description)
}

func (yk *YooKassaGateway) retryConfig() lib.RetryConfig {
	attempts := yk.cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return lib.RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: yk.cfg.RetryDelay,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
		EnableRetry:  true,
	}
}

// CreatePayment registers a redirect payment that is captured automatically.
// Retries reuse the idempotency key so the gateway never charges twice.
func (yk *YooKassaGateway) CreatePayment(ctx context.Context, amount decimal.Decimal, description, idempotencyKey string) (*structs.Payment, error) {
	body := yooPaymentRequest{
		Amount:       yooAmount{Value: amount.StringFixed(2), Currency: yk.currency},
		Confirmation: yooConfirmation{Type: "redirect", ReturnURL: yk.cfg.ReturnURL},
		Capture:      true,
		Description:  description,
	}

	var payment yooPayment
	err := lib.RetryWithBackoff(ctx, yk.retryConfig(), isRetryableGatewayError, func() error {
		return yk.do(ctx, http.MethodPost, "/payments", idempotencyKey, body, &payment)
	})
	if err != nil {
		gatewayRequests.WithLabelValues("create", "error").Inc()
		yk.logger.Error("Failed to create payment",
			gecho.Field("error", err),
			gecho.Field("amount", body.Amount.Value),
			gecho.Field("idempotency_key", idempotencyKey),
		)
		return nil, fmt.Errorf("%w: create payment: %v", lib.ErrExternalService, err)
	}
	gatewayRequests.WithLabelValues("create", "ok").Inc()

	if payment.ID == "" || payment.Confirmation.ConfirmationURL == "" {
		return nil, fmt.Errorf("%w: gateway response is missing the payment id or confirmation url", lib.ErrExternalService)
	}

	return &structs.Payment{
		ID:              payment.ID,
		Status:          structs.PaymentStatus(payment.Status),
		ConfirmationURL: payment.Confirmation.ConfirmationURL,
	}, nil
}

// GetPaymentStatus reads the current status of a payment
func (yk *YooKassaGateway) GetPaymentStatus(ctx context.Context, paymentID string) (structs.PaymentStatus, error) {
	if paymentID == "" {
		return "", fmt.Errorf("%w: payment id is empty", lib.ErrValidation)
	}

	var payment yooPayment
	err := lib.RetryWithBackoff(ctx, yk.retryConfig(), isRetryableGatewayError, func() error {
		return yk.do(ctx, http.MethodGet, "/payments/"+paymentID, "", nil, &payment)
	})
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			gatewayRequests.WithLabelValues("status", "not_found").Inc()
			return "", fmt.Errorf("%w: payment %s", lib.ErrNotFound, paymentID)
		}
		gatewayRequests.WithLabelValues("status", "error").Inc()
		yk.logger.Error("Failed to fetch payment status", gecho.Field("error", err), gecho.Field("payment_id", paymentID))
		return "", fmt.Errorf("%w: payment status: %v", lib.ErrExternalService, err)
	}
	gatewayRequests.WithLabelValues("status", "ok").Inc()

	return structs.PaymentStatus(payment.Status), nil
}

// do performs one bounded request
func (yk *YooKassaGateway) do(ctx context.Context, method, path, idempotencyKey string, body any, out any) error {
	timeout := yk.cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(yk.cfg.BaseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(yk.cfg.ShopID, yk.cfg.SecretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotence-Key", idempotencyKey)
	}

	resp, err := yk.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &statusError{code: resp.StatusCode}
		_ = json.Unmarshal(data, &se.body)
		return se
	}

	return json.Unmarshal(data, out)
}

// isRetryableGatewayError retries timeouts, transport failures, 429 and 5xx
func isRetryableGatewayError(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return strings.Contains(err.Error(), "connection reset") || strings.Contains(err.Error(), "EOF")
}
