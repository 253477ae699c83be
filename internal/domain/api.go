package domain

import "time"

type CheckoutRequest struct {
	Items        []LineItem `json:"items"`
	DiscountCode string     `json:"discountCode,omitempty"`
}

type CheckoutResponse struct {
	OrderID     string    `json:"orderId"`
	NanoAddress string    `json:"nanoAddress"`
	XNOAmount   float64   `json:"xnoAmount"`
	XNORaw      string    `json:"xnoRaw"`
	USDTotal    float64   `json:"usdTotal"`
	XNOPrice    float64   `json:"xnoPrice"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type AttachCustomerRequest struct {
	OrderID  string       `json:"orderId" binding:"required"`
	Customer CustomerInfo `json:"customer" binding:"required"`
}

// StatusResponse is the full reconciliation result the storefront poller
// renders. BlockHash is set only once the session is paid.
type StatusResponse struct {
	Status      SessionStatus `json:"status"`
	OrderID     string        `json:"orderId"`
	NanoAddress string        `json:"nanoAddress,omitempty"`
	XNOAmount   float64       `json:"xnoAmount,omitempty"`
	XNORaw      string        `json:"xnoRaw,omitempty"`
	USDTotal    float64       `json:"usdTotal,omitempty"`
	XNOPrice    float64       `json:"xnoPrice,omitempty"`
	ExpiresAt   time.Time     `json:"expiresAt,omitzero"`
	LineItems   []LineItem    `json:"lineItems,omitempty"`
	Customer    *CustomerInfo `json:"customer,omitempty"`
	BlockHash   string        `json:"blockHash,omitempty"`
}
