package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ordervoice/voice-bridge/internal/extraction"
	"github.com/ordervoice/voice-bridge/internal/observability"
)

// OrderStore persists confirmed orders in Postgres.
type OrderStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderStore opens a connection pool against the given database URL.
func NewOrderStore(ctx context.Context, databaseURL string) (*OrderStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open order store: %w", err)
	}

	return &OrderStore{
		pool:   pool,
		logger: observability.GetLogger().With().Str("component", "store").Logger(),
	}, nil
}

// SaveOrder inserts one confirmed order row.
func (s *OrderStore) SaveOrder(ctx context.Context, caller string, order *extraction.Order) error {
	const query = `INSERT INTO orders (name, phone, items, pickup_time, total) VALUES ($1, $2, $3, $4, $5)`

	phone := order.Phone
	if phone == "" {
		phone = caller
	}

	_, err := s.pool.Exec(ctx, query,
		order.Name, phone, strings.Join(order.Items, ", "), order.Time, order.Total)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	s.logger.Info().Str("name", order.Name).Str("phone", phone).Msg("Order stored")
	return nil
}

// Ping verifies database connectivity, used by the readiness probe.
func (s *OrderStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *OrderStore) Close() {
	s.pool.Close()
}
