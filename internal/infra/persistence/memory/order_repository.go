package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domorder "example.com/ddd-order/internal/domain/order"
)

var _ domorder.Repository = (*OrderRepository)(nil)

// OrderRepository keeps orders in process memory. Stored orders are private
// copies; callers never receive a pointer into the map.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[int64]*domorder.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[int64]*domorder.Order)}
}

func (r *OrderRepository) Save(_ context.Context, o *domorder.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID()] = o.Clone()
	return nil
}

func (r *OrderRepository) FindByID(_ context.Context, id int64) (*domorder.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order id %d: %w", id, domorder.ErrOrderNotFound)
	}
	return o.Clone(), nil
}

func (r *OrderRepository) FindAll(_ context.Context) ([]*domorder.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domorder.Order, 0, len(r.orders))
	for _, o := range r.orders {
		result = append(result, o.Clone())
	}
	sortByID(result)
	return result, nil
}

func (r *OrderRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return fmt.Errorf("order id %d cannot be deleted: %w", id, domorder.ErrOrderNotFound)
	}
	delete(r.orders, id)
	return nil
}

func (r *OrderRepository) FindByCustomerName(_ context.Context, customerName string) ([]*domorder.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*domorder.Order
	for _, o := range r.orders {
		if o.CustomerName() == customerName {
			result = append(result, o.Clone())
		}
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no orders for customer %q: %w", customerName, domorder.ErrOrderNotFound)
	}
	sortByID(result)
	return result, nil
}

func sortByID(orders []*domorder.Order) {
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID() < orders[j].ID() })
}
