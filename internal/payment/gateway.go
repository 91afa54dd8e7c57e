package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

// ErrGatewayUnavailable возвращается при любой проблеме связи со шлюзом:
// таймаут, сетевая ошибка, не-2xx ответ или открытый circuit breaker.
// Ошибка транзиентная, запрос можно повторить.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// GatewayClient описывает создание заказа на стороне платёжного шлюза.
type GatewayClient interface {
	// CreateOrder создаёт заказ в шлюзе и возвращает его идентификатор,
	// который клиент затем использует для оплаты и подписи.
	CreateOrder(ctx context.Context, amount float64, currency string) (string, error)
}

// Client — HTTP-клиент Razorpay-совместимого шлюза с ограниченным
// таймаутом и circuit breaker на исходящие вызовы.
type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	http      *http.Client
	cb        *gobreaker.CircuitBreaker[string]
}

func NewClient(baseURL, keyID, keySecret string, timeout time.Duration) *Client {
	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: 30 * time.Second,
	})
	return &Client{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		http:      &http.Client{Timeout: timeout},
		cb:        cb,
	}
}

type gatewayOrderRequest struct {
	Amount   int64  `json:"amount"` // сумма в младших единицах валюты
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type gatewayOrderResponse struct {
	ID string `json:"id"`
}

func (c *Client) CreateOrder(ctx context.Context, amount float64, currency string) (string, error) {
	const op = "payment.Client.CreateOrder"

	id, err := c.cb.Execute(func() (string, error) {
		body, err := json.Marshal(gatewayOrderRequest{
			Amount:   int64(math.Round(amount * 100)),
			Currency: currency,
			Receipt:  "rcpt_" + uuid.NewString(),
		})
		if err != nil {
			return "", err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")
		req.SetBasicAuth(c.keyID, c.keySecret)

		resp, err := c.http.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", fmt.Errorf("gateway returned status %d", resp.StatusCode)
		}

		var out gatewayOrderResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", err
		}
		if out.ID == "" {
			return "", errors.New("gateway returned empty order id")
		}
		return out.ID, nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, ErrGatewayUnavailable, err)
	}
	return id, nil
}
