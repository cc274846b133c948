//go:build integration

package sqldb_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	domorder "example.com/ddd-order/internal/domain/order"
	"example.com/ddd-order/internal/infra/persistence/sqldb"
)

type PostgresOrderRepositorySuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *sql.DB
	repo      *sqldb.OrderRepository
}

func TestPostgresOrderRepositorySuite(t *testing.T) {
	suite.Run(t, new(PostgresOrderRepositorySuite))
}

func (s *PostgresOrderRepositorySuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("orders"),
		postgres.WithUsername("orders"),
		postgres.WithPassword("orders"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqldb.Open(ctx, sqldb.Postgres, dsn)
	s.Require().NoError(err)
	s.db = db

	s.Require().NoError(sqldb.Migrate(ctx, db, sqldb.Postgres))
	s.Require().NoError(sqldb.Migrate(ctx, db, sqldb.Postgres), "migrations are repeatable")
}

func (s *PostgresOrderRepositorySuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *PostgresOrderRepositorySuite) SetupTest() {
	_, err := s.db.Exec("TRUNCATE TABLE orders")
	s.Require().NoError(err)
	s.repo = sqldb.NewOrderRepository(s.db, sqldb.Postgres)
}

func (s *PostgresOrderRepositorySuite) newOrder(id int64, name, amount string) *domorder.Order {
	o, err := domorder.NewOrder(id, name, decimal.RequireFromString(amount))
	s.Require().NoError(err)
	return o
}

func (s *PostgresOrderRepositorySuite) TestSaveAndFind() {
	ctx := context.Background()
	o := s.newOrder(2, "张三", "99.99")
	s.Require().NoError(s.repo.Save(ctx, o))

	got, err := s.repo.FindByID(ctx, 2)
	s.Require().NoError(err)
	s.Equal("张三", got.CustomerName())
	s.True(got.Amount().Equal(decimal.RequireFromString("99.99")))
	s.Equal(domorder.StatusCreated, got.Status())
}

func (s *PostgresOrderRepositorySuite) TestSaveOverwrites() {
	ctx := context.Background()
	o := s.newOrder(1, "张三", "10")
	s.Require().NoError(s.repo.Save(ctx, o))

	s.Require().NoError(o.UpdateCustomerInfo("李四"))
	o.Cancel()
	s.Require().NoError(s.repo.Save(ctx, o))

	got, err := s.repo.FindByID(ctx, 1)
	s.Require().NoError(err)
	s.Equal("李四", got.CustomerName())
	s.Equal(domorder.StatusCanceled, got.Status())
}

func (s *PostgresOrderRepositorySuite) TestFindAllAndByCustomer() {
	ctx := context.Background()
	for _, o := range []*domorder.Order{
		s.newOrder(3, "张三", "3"),
		s.newOrder(1, "张三", "1"),
		s.newOrder(2, "李四", "2"),
	} {
		s.Require().NoError(s.repo.Save(ctx, o))
	}

	all, err := s.repo.FindAll(ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]int64{1, 2, 3}, []int64{all[0].ID(), all[1].ID(), all[2].ID()})

	mine, err := s.repo.FindByCustomerName(ctx, "张三")
	s.Require().NoError(err)
	s.Require().Len(mine, 2)
	s.Equal(int64(1), mine[0].ID())

	_, err = s.repo.FindByCustomerName(ctx, "nobody")
	s.ErrorIs(err, domorder.ErrOrderNotFound)
}

func (s *PostgresOrderRepositorySuite) TestDelete() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Save(ctx, s.newOrder(5, "张三", "5")))

	s.Require().NoError(s.repo.Delete(ctx, 5))
	_, err := s.repo.FindByID(ctx, 5)
	s.ErrorIs(err, domorder.ErrOrderNotFound)
	s.ErrorIs(s.repo.Delete(ctx, 5), domorder.ErrOrderNotFound)
}

func (s *PostgresOrderRepositorySuite) TestPing() {
	s.NoError(s.repo.Ping(context.Background()))
}
