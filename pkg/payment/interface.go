package payment

import (
	"context"
	"errors"
	"math"
)

var ErrPaymentNotCompleted = errors.New("payment not completed")

// PaymentProvider creates a gateway order the client pays against and verifies the result.
type PaymentProvider interface {
	Name() string
	CreateOrder(ctx context.Context, request *OrderRequest) (*Order, error)
	VerifyPayment(ctx context.Context, request *VerifyRequest) (*PaymentResponse, error)
}

type OrderRequest struct {
	Amount   float64           `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type Order struct {
	ID           string  `json:"id"`
	Provider     string  `json:"provider"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	Status       string  `json:"status"`
	ClientSecret string  `json:"client_secret,omitempty"`
}

type VerifyRequest struct {
	OrderID   string  `json:"order_id"`
	PaymentID string  `json:"payment_id"`
	Signature string  `json:"signature"`
	Amount    float64 `json:"amount"`
}

type PaymentResponse struct {
	TransactionID string  `json:"transaction_id"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
}

// toMinorUnits converts rupees to paise.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
