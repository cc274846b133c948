package order

import "errors"

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidOrder        = errors.New("invalid order")
	ErrInvalidAmount       = errors.New("invalid order amount")
	ErrInvalidCustomerName = errors.New("customer name must not be empty")
)
