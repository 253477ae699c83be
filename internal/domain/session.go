package domain

import "time"

type SessionStatus string

const (
	SessionStatusPending SessionStatus = "pending"
	SessionStatusPaid    SessionStatus = "paid"
	SessionStatusExpired SessionStatus = "expired"

	// SessionStatusError is returned to callers on operational failure.
	// It is never persisted; a session in storage is always pending, paid
	// or expired.
	SessionStatusError SessionStatus = "error"
)

// Terminal reports whether a stored status can never change again.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusPaid || s == SessionStatusExpired
}

type LineItem struct {
	VariantID   string `json:"variantId" binding:"required"`
	ProductSlug string `json:"productSlug"`
	ProductName string `json:"productName"`
	VariantName string `json:"variantName"`
	Quantity    int    `json:"quantity" binding:"required"`
	Image       string `json:"image,omitempty"`

	// UnitPriceCents is resolved from the catalog at session creation,
	// never taken from the request.
	UnitPriceCents int64 `json:"unitPriceCents,omitempty"`
}

type CustomerInfo struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
}

// PaymentSession is one time-boxed request to pay an exact XNO amount for a
// cart. RawAmount and the pricing basis are fixed at creation; only status,
// customer info and the confirmation proof ever change afterwards.
type PaymentSession struct {
	OrderID          string
	Status           SessionStatus
	FiatTotalCents   int64
	ExchangeRate     float64
	XNOAmount        float64
	RawAmount        string
	ReceivingAddress string
	LineItems        []LineItem
	Customer         *CustomerInfo

	// TxHash and PayerAddress are the confirmation proof, set exactly when
	// the session transitions to paid.
	TxHash       string
	PayerAddress string

	CreatedAt time.Time
	ExpiresAt time.Time
	UpdatedAt time.Time
}

func (s *PaymentSession) ExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
