package validators

type SubscriptionOrderRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=online upi"`
}

// SubscriptionPurchaseRequest carries the provider references for online and upi
// payments; cash purchases only need the method.
type SubscriptionPurchaseRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=online cash upi"`
	TransactionID string `json:"transaction_id" validate:"omitempty,max=100"`
	OrderID       string `json:"order_id" validate:"omitempty,max=100"`
	PaymentID     string `json:"payment_id" validate:"omitempty,max=100"`
	Signature     string `json:"signature" validate:"omitempty,max=256"`
}
