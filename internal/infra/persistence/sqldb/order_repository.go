package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	domorder "example.com/ddd-order/internal/domain/order"
)

var _ domorder.Repository = (*OrderRepository)(nil)

type OrderRepository struct {
	db *sql.DB
	d  Dialect
}

func NewOrderRepository(db *sql.DB, d Dialect) *OrderRepository {
	return &OrderRepository{db: db, d: d}
}

func (r *OrderRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *OrderRepository) Save(ctx context.Context, o *domorder.Order) error {
	_, err := r.db.ExecContext(ctx, r.d.upsert, o.ID(), o.CustomerName(), o.Amount(), int(o.Status()))
	if err != nil {
		return fmt.Errorf("save order %d: %w", o.ID(), err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*domorder.Order, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, customer_name, amount, status
        FROM orders WHERE id = `+r.d.placeholder(1), id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order id %d: %w", id, domorder.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("find order %d: %w", id, err)
	}
	return o, nil
}

func (r *OrderRepository) FindAll(ctx context.Context) ([]*domorder.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, customer_name, amount, status
        FROM orders
        ORDER BY id ASC
    `)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return scanOrders(rows)
}

func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = `+r.d.placeholder(1), id)
	if err != nil {
		return fmt.Errorf("delete order %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete order %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("order id %d: %w", id, domorder.ErrOrderNotFound)
	}
	return nil
}

func (r *OrderRepository) FindByCustomerName(ctx context.Context, customerName string) ([]*domorder.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, customer_name, amount, status
        FROM orders
        WHERE customer_name = `+r.d.placeholder(1)+`
        ORDER BY id ASC
    `, customerName)
	if err != nil {
		return nil, fmt.Errorf("find orders by customer: %w", err)
	}
	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("customer %q: %w", customerName, domorder.ErrOrderNotFound)
	}
	return orders, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*domorder.Order, error) {
	var (
		id     int64
		name   string
		amount decimal.Decimal
		status int
	)
	if err := s.Scan(&id, &name, &amount, &status); err != nil {
		return nil, err
	}
	return domorder.Restore(id, name, amount, domorder.Status(status))
}

func scanOrders(rows *sql.Rows) ([]*domorder.Order, error) {
	defer rows.Close()

	orders := make([]*domorder.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return orders, nil
}
