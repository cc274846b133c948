package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domorder "example.com/ddd-order/internal/domain/order"
)

// maxIDAttempts bounds how often CreateOrder re-draws an id that is already
// taken in the store.
const maxIDAttempts = 5

var errIDExhausted = errors.New("could not allocate a free order id")

type Service struct {
	repo  domorder.Repository
	ids   IDGenerator
	locks *keyLocker
	log   *zap.Logger
}

// NewService wires the order use cases. A nil ids falls back to a
// ClockIDGenerator and a nil logger to a no-op one.
func NewService(repo domorder.Repository, ids IDGenerator, logger *zap.Logger) *Service {
	if ids == nil {
		ids = NewClockIDGenerator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:  repo,
		ids:   ids,
		locks: newKeyLocker(),
		log:   logger.Named("order"),
	}
}

func (s *Service) CreateOrder(ctx context.Context, customerName string, amount decimal.Decimal) (*domorder.Order, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := s.ids.NextID()
		created, taken, err := s.createWithID(ctx, id, customerName, amount)
		if err != nil {
			return nil, fmt.Errorf("order creation failed: %w", err)
		}
		if !taken {
			s.log.Info("order created",
				zap.Int64("order_id", id),
				zap.String("customer_name", customerName),
				zap.String("amount", amount.String()))
			return created, nil
		}
		s.log.Warn("generated order id already in use", zap.Int64("order_id", id))
	}
	return nil, fmt.Errorf("order creation failed: %w", errIDExhausted)
}

func (s *Service) createWithID(ctx context.Context, id int64, customerName string, amount decimal.Decimal) (_ *domorder.Order, taken bool, _ error) {
	unlock := s.locks.lock(id)
	defer unlock()

	if _, err := s.repo.FindByID(ctx, id); err == nil {
		return nil, true, nil
	} else if !errors.Is(err, domorder.ErrOrderNotFound) {
		return nil, false, err
	}

	newOrder, err := domorder.NewOrder(id, customerName, amount)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", domorder.ErrInvalidOrder, err)
	}
	if err := s.repo.Save(ctx, newOrder); err != nil {
		return nil, false, fmt.Errorf("save order: %w", err)
	}
	return newOrder, false, nil
}

// CancelOrder reports whether this call moved the order to canceled. A
// second cancel succeeds and returns false.
func (s *Service) CancelOrder(ctx context.Context, id int64) (*domorder.Order, bool, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("cancel order failed: %w", err)
	}
	canceled := o.Cancel()
	if canceled {
		s.log.Info("order canceled", zap.Int64("order_id", id))
	} else {
		s.log.Info("order already canceled", zap.Int64("order_id", id))
	}
	if err := s.repo.Save(ctx, o); err != nil {
		return nil, false, fmt.Errorf("cancel order failed: %w", err)
	}
	return o, canceled, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*domorder.Order, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order failed: %w", err)
	}
	return o, nil
}

func (s *Service) GetAllOrders(ctx context.Context) ([]*domorder.Order, error) {
	orders, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders failed: %w", err)
	}
	return orders, nil
}

func (s *Service) FindOrdersByCustomer(ctx context.Context, customerName string) ([]*domorder.Order, error) {
	orders, err := s.repo.FindByCustomerName(ctx, customerName)
	if err != nil {
		return nil, fmt.Errorf("find orders by customer failed: %w", err)
	}
	return orders, nil
}

// UpdateOrder applies both field updates to the loaded order. When either is
// rejected nothing is saved, so the stored order keeps its previous state.
// A valid customerName is not persisted on its own when the amount is
// rejected; the update is all or nothing. Both field errors are reported.
func (s *Service) UpdateOrder(ctx context.Context, id int64, customerName string, amount decimal.Decimal) (*domorder.Order, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update order failed: %w", err)
	}

	nameErr := o.UpdateCustomerInfo(customerName)
	amountErr := o.UpdateAmount(amount)
	if err := errors.Join(nameErr, amountErr); err != nil {
		return nil, fmt.Errorf("update order failed: %w", err)
	}

	if err := s.repo.Save(ctx, o); err != nil {
		return nil, fmt.Errorf("update order failed: %w", err)
	}
	s.log.Info("order updated",
		zap.Int64("order_id", id),
		zap.String("customer_name", customerName),
		zap.String("amount", amount.String()))
	return o, nil
}

func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	unlock := s.locks.lock(id)
	defer unlock()

	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete order failed: %w", err)
	}
	if err := s.repo.Delete(ctx, o.ID()); err != nil {
		return fmt.Errorf("delete order failed: %w", err)
	}
	s.log.Info("order deleted", zap.Int64("order_id", id))
	return nil
}
