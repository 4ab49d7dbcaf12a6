package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/XSAM/otelsql"
	"github.com/aaravmahajanofficial/storefront/internal/config"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
)

//go:embed schema.sql
var schema string

type Repository struct {
	DB *sql.DB

	Users    UserRepository
	Products ProductRepository
	Carts    CartRepository
	Orders   OrderRepository
}

func New(cfg *config.Config) (*Repository, error) {

	db, err := otelsql.Open("postgres", cfg.Database.GetDSN(),
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	// Test the connection to make sure DB is reachable
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return NewFromDB(db), nil
}

// NewFromDB wires every repository onto an existing handle.
func NewFromDB(db *sql.DB) *Repository {
	return &Repository{
		DB:       db,
		Users:    NewUserRepo(db),
		Products: NewProductRepo(db),
		Carts:    NewCartRepo(db),
		Orders:   NewOrderRepository(db),
	}
}

// Migrate creates any missing tables and indexes.
func (p *Repository) Migrate(ctx context.Context) error {
	if _, err := p.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	return nil
}

func (p *Repository) Close() error {
	return p.DB.Close()
}
