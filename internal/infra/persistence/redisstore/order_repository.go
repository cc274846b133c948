// Package redisstore keeps orders in a single Redis hash keyed by order id.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	domorder "example.com/ddd-order/internal/domain/order"
)

const defaultKeyPrefix = "ddd-order:"

var _ domorder.Repository = (*OrderRepository)(nil)

type Config struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix namespaces the hash. Defaults to "ddd-order:".
	KeyPrefix string
}

type OrderRepository struct {
	client *redis.Client
	key    string
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*OrderRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewWithClient(client, cfg.KeyPrefix), nil
}

func NewWithClient(client *redis.Client, keyPrefix string) *OrderRepository {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &OrderRepository{client: client, key: keyPrefix + "orders"}
}

func (r *OrderRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *OrderRepository) Close() error {
	return r.client.Close()
}

func (r *OrderRepository) Save(ctx context.Context, o *domorder.Order) error {
	data, err := json.Marshal(toRecord(o))
	if err != nil {
		return fmt.Errorf("encode order %d: %w", o.ID(), err)
	}
	if err := r.client.HSet(ctx, r.key, field(o.ID()), data).Err(); err != nil {
		return fmt.Errorf("save order %d: %w", o.ID(), err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*domorder.Order, error) {
	data, err := r.client.HGet(ctx, r.key, field(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("order id %d: %w", id, domorder.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("find order %d: %w", id, err)
	}
	return decode(data)
}

func (r *OrderRepository) FindAll(ctx context.Context) ([]*domorder.Order, error) {
	return r.scan(ctx, func(*domorder.Order) bool { return true })
}

func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.client.HDel(ctx, r.key, field(id)).Result()
	if err != nil {
		return fmt.Errorf("delete order %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("order id %d: %w", id, domorder.ErrOrderNotFound)
	}
	return nil
}

func (r *OrderRepository) FindByCustomerName(ctx context.Context, customerName string) ([]*domorder.Order, error) {
	orders, err := r.scan(ctx, func(o *domorder.Order) bool { return o.CustomerName() == customerName })
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("customer %q: %w", customerName, domorder.ErrOrderNotFound)
	}
	return orders, nil
}

func (r *OrderRepository) scan(ctx context.Context, keep func(*domorder.Order) bool) ([]*domorder.Order, error) {
	all, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	orders := make([]*domorder.Order, 0, len(all))
	for _, data := range all {
		o, err := decode([]byte(data))
		if err != nil {
			return nil, err
		}
		if keep(o) {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID() < orders[j].ID() })
	return orders, nil
}

type record struct {
	ID           int64           `json:"id"`
	CustomerName string          `json:"customerName"`
	Amount       decimal.Decimal `json:"amount"`
	Status       int             `json:"status"`
}

func toRecord(o *domorder.Order) record {
	return record{
		ID:           o.ID(),
		CustomerName: o.CustomerName(),
		Amount:       o.Amount(),
		Status:       int(o.Status()),
	}
}

func decode(data []byte) (*domorder.Order, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	return domorder.Restore(rec.ID, rec.CustomerName, rec.Amount, domorder.Status(rec.Status))
}

func field(id int64) string {
	return strconv.FormatInt(id, 10)
}
