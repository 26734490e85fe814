package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/razorpay/razorpay-go"
)

type RazorpayProvider struct {
	client    *razorpay.Client
	keySecret string
}

func NewRazorpayProvider(keyID, keySecret string) *RazorpayProvider {
	return &RazorpayProvider{
		client:    razorpay.NewClient(keyID, keySecret),
		keySecret: keySecret,
	}
}

func (r *RazorpayProvider) Name() string { return "razorpay" }

func (r *RazorpayProvider) CreateOrder(ctx context.Context, request *OrderRequest) (*Order, error) {
	orderData := map[string]interface{}{
		"amount":   toMinorUnits(request.Amount),
		"currency": request.Currency,
		"receipt":  request.Receipt,
	}
	if len(request.Notes) > 0 {
		orderData["notes"] = request.Notes
	}

	order, err := r.client.Order.Create(orderData, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create razorpay order: %w", err)
	}

	id, _ := order["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("razorpay order response missing id")
	}
	status, _ := order["status"].(string)

	return &Order{
		ID:       id,
		Provider: r.Name(),
		Amount:   request.Amount,
		Currency: request.Currency,
		Status:   status,
	}, nil
}

// VerifyPayment checks the checkout signature and then that the payment was captured for the order.
func (r *RazorpayProvider) VerifyPayment(ctx context.Context, request *VerifyRequest) (*PaymentResponse, error) {
	expected := r.signature(request.OrderID + "|" + request.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(request.Signature)) {
		return nil, fmt.Errorf("%w: invalid razorpay signature", ErrPaymentNotCompleted)
	}

	payment, err := r.client.Payment.Fetch(request.PaymentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch razorpay payment: %w", err)
	}

	status, _ := payment["status"].(string)
	if status != "captured" && status != "authorized" {
		return nil, fmt.Errorf("%w: razorpay payment is %s", ErrPaymentNotCompleted, status)
	}
	if orderID, _ := payment["order_id"].(string); orderID != request.OrderID {
		return nil, fmt.Errorf("%w: payment belongs to another order", ErrPaymentNotCompleted)
	}

	amount, _ := payment["amount"].(float64)
	if request.Amount > 0 && int64(amount) < toMinorUnits(request.Amount) {
		return nil, fmt.Errorf("%w: paid amount is short", ErrPaymentNotCompleted)
	}
	currency, _ := payment["currency"].(string)

	return &PaymentResponse{
		TransactionID: request.PaymentID,
		Status:        status,
		Amount:        amount / 100,
		Currency:      currency,
	}, nil
}

func (r *RazorpayProvider) signature(payload string) string {
	h := hmac.New(sha256.New, []byte(r.keySecret))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}
