package order

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order. Its numeric value is what
// clients and stores see.
type Status int

const (
	StatusCreated Status = iota
	StatusCanceled
)

func (s Status) IsValid() bool {
	switch s {
	case StatusCreated, StatusCanceled:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "CREATED"
	case StatusCanceled:
		return "CANCELED"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Order is the aggregate root of the ordering context.
//
// Invariants:
//   - id is assigned once by NewOrder or Restore and never changes
//   - customerName is never empty
//   - amount is always greater than zero, at most MaxAmount and carries at
//     most AmountScale decimal places
//   - Canceled is terminal
type Order struct {
	id           int64
	customerName string
	amount       decimal.Decimal
	status       Status
}

// NewOrder validates its arguments and returns an order in StatusCreated.
// No order is returned when validation fails.
func NewOrder(id int64, customerName string, amount decimal.Decimal) (*Order, error) {
	if err := validateCustomerName(customerName); err != nil {
		return nil, err
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	return &Order{
		id:           id,
		customerName: customerName,
		amount:       amount,
		status:       StatusCreated,
	}, nil
}

// Restore rebuilds an order from persisted state.
func Restore(id int64, customerName string, amount decimal.Decimal, status Status) (*Order, error) {
	o, err := NewOrder(id, customerName, amount)
	if err != nil {
		return nil, fmt.Errorf("restore order %d: %w", id, err)
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("restore order %d: unknown status %d", id, int(status))
	}
	o.status = status
	return o, nil
}

func (o *Order) ID() int64 {
	return o.id
}

func (o *Order) CustomerName() string {
	return o.customerName
}

func (o *Order) Amount() decimal.Decimal {
	return o.amount
}

func (o *Order) Status() Status {
	return o.status
}

// Cancel moves the order to StatusCanceled. It reports false when the order
// was already canceled; that is not an error.
func (o *Order) Cancel() bool {
	if o.status == StatusCanceled {
		return false
	}
	o.status = StatusCanceled
	return true
}

func (o *Order) UpdateCustomerInfo(customerName string) error {
	if err := validateCustomerName(customerName); err != nil {
		return err
	}
	o.customerName = customerName
	return nil
}

// UpdateAmount leaves the amount untouched when newAmount is not positive.
func (o *Order) UpdateAmount(newAmount decimal.Decimal) error {
	if err := validateAmount(newAmount); err != nil {
		return err
	}
	o.amount = newAmount
	return nil
}

// Clone returns a copy that shares no state with o.
func (o *Order) Clone() *Order {
	c := *o
	return &c
}

func validateCustomerName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidCustomerName
	}
	return nil
}

// AmountScale is the number of decimal places an amount may carry. Together
// with MaxAmount it matches the DECIMAL(20,4) column of the SQL stores and
// keeps every amount representable as a finite JSON number.
const AmountScale = 4

var MaxAmount = decimal.RequireFromString("9999999999999999.9999")

func validateAmount(amount decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return fmt.Errorf("%w: must be greater than 0, got %s", ErrInvalidAmount, amount.String())
	case amount.GreaterThan(MaxAmount):
		return fmt.Errorf("%w: must not exceed %s", ErrInvalidAmount, MaxAmount.String())
	case !amount.Equal(amount.Truncate(AmountScale)):
		return fmt.Errorf("%w: at most %d decimal places, got %s", ErrInvalidAmount, AmountScale, amount.String())
	}
	return nil
}
