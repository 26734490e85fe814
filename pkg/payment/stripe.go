package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type StripeProvider struct {
	client *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	sc := &client.API{}
	sc.Init(secretKey, nil)

	return &StripeProvider{
		client: sc,
	}
}

func (s *StripeProvider) Name() string { return "stripe" }

func (s *StripeProvider) CreateOrder(ctx context.Context, request *OrderRequest) (*Order, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(request.Amount)),
		Currency: stripe.String(strings.ToLower(request.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("receipt", request.Receipt)
	for key, value := range request.Notes {
		params.AddMetadata(key, value)
	}

	pi, err := s.client.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &Order{
		ID:           pi.ID,
		Provider:     s.Name(),
		Amount:       float64(pi.Amount) / 100,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		ClientSecret: pi.ClientSecret,
	}, nil
}

// VerifyPayment treats the order id as the payment intent id.
func (s *StripeProvider) VerifyPayment(ctx context.Context, request *VerifyRequest) (*PaymentResponse, error) {
	intentID := request.OrderID
	if intentID == "" {
		intentID = request.PaymentID
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.client.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment intent: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("%w: payment intent is %s", ErrPaymentNotCompleted, pi.Status)
	}
	if request.Amount > 0 && pi.AmountReceived < toMinorUnits(request.Amount) {
		return nil, fmt.Errorf("%w: paid amount is short", ErrPaymentNotCompleted)
	}

	return &PaymentResponse{
		TransactionID: pi.ID,
		Status:        string(pi.Status),
		Amount:        float64(pi.AmountReceived) / 100,
		Currency:      string(pi.Currency),
	}, nil
}
