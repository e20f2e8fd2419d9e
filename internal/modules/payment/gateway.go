// Package payment wraps the Razorpay SDK: order creation plus signature checks
// for checkout callbacks and webhooks.
package payment

import (
	"context"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

var ErrGateway = errors.New("payment gateway error")

type Gateway struct {
	client        *razorpay.Client
	keySecret     string
	webhookSecret string
}

// NewGateway builds a client for keyID/keySecret. An empty baseURL keeps the
// SDK's production endpoint.
func NewGateway(baseURL, keyID, keySecret, webhookSecret string) *Gateway {
	client := razorpay.NewClient(keyID, keySecret)
	if baseURL != "" {
		client.Request.BaseURL = baseURL
	}
	return &Gateway{client: client, keySecret: keySecret, webhookSecret: webhookSecret}
}

// CreateOrder registers an order for amount (minor units) and returns its id.
// The SDK call is not cancellable, so ctx is only checked up front.
func (g *Gateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, err := g.client.Order.Create(map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("%w: create order: %v", ErrGateway, err)
	}
	id, _ := out["id"].(string)
	if id == "" {
		return "", fmt.Errorf("%w: empty order id", ErrGateway)
	}
	return id, nil
}

// VerifySignature checks the checkout callback signature over "orderID|paymentID".
func (g *Gateway) VerifySignature(orderID, paymentID, signature string) bool {
	if g.keySecret == "" || signature == "" {
		return false
	}
	return utils.VerifyPaymentSignature(map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}, signature, g.keySecret)
}

// VerifyWebhook checks the webhook signature over the raw request body.
func (g *Gateway) VerifyWebhook(body []byte, signature string) bool {
	if g.webhookSecret == "" || signature == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(body), signature, g.webhookSecret)
}
