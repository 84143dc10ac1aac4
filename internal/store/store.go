package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

// ErrNotFound is returned when a row addressed by ID does not exist
var ErrNotFound = errors.New("not found")

//go:embed schema.sql
var schemaSQL string

// Store defines the persistence operations of the calculator service
type Store interface {
	Ping(ctx context.Context) error

	SaveCalculation(ctx context.Context, calc *models.Calculation) (string, error)
	GetCalculation(ctx context.Context, id string) (*models.Calculation, error)
	ListCalculations(ctx context.Context, filters CalculationFilters) ([]models.Calculation, error)

	RecordBet(ctx context.Context, bet *models.BetRecord) (int64, error)
	ListBets(ctx context.Context, filter models.RecordFilter) ([]models.BetRecord, error)

	GetNotificationSettings(ctx context.Context, userID string) (*models.NotificationSettings, error)
	UpsertNotificationSettings(ctx context.Context, userID string, update *models.NotificationSettingsUpdate) error
	InsertNotification(ctx context.Context, n *models.Notification) (int64, error)
	ListNotifications(ctx context.Context, userID string, filters models.NotificationFilters) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID string, id int64) error

	Close() error
}

// CalculationFilters pages the calculation history
type CalculationFilters struct {
	Kind   string
	Limit  int
	Offset int
}

// PoolConfig tunes the database/sql connection pool
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultPoolConfig matches the sizing used by the other fortuna services
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// Postgres implements Store for PostgreSQL
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a connection pool. It does not contact the server; call Ping.
func NewPostgres(dsn string, pool PoolConfig) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	return &Postgres{db: db}, nil
}

// Ping checks database connectivity
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Migrate creates the service tables if they do not exist
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (p *Postgres) Close() error {
	return p.db.Close()
}
