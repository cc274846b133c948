package order

import "context"

// Repository is the persistence contract for orders. Implementations must be
// safe for concurrent use. FindByID and Delete report a missing id with an
// error wrapping ErrOrderNotFound; FindAll returns orders in ascending id order.
type Repository interface {
	Save(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id int64) (*Order, error)
	FindAll(ctx context.Context) ([]*Order, error)
	Delete(ctx context.Context, id int64) error
	FindByCustomerName(ctx context.Context, customerName string) ([]*Order, error)
}
