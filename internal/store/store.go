package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/qloteam/Qloset-sub000/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

const variantCols = `v.id, v.product_id, v.size, v.sku, v.stock_qty, p.price_sale`

// GetProductByID retrieves a product with its variants
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product not found: %d", id)
	}
	if err != nil {
		return nil, err
	}

	err = s.db.SelectContext(ctx, &product.Variants,
		"SELECT "+variantCols+" FROM variants v JOIN products p ON p.id = v.product_id WHERE v.product_id = $1 ORDER BY v.id",
		id)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProducts retrieves all active products
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE active = TRUE ORDER BY id")
	return products, err
}

// GetVariantsByProduct retrieves a product's variants in id order
func (s *Store) GetVariantsByProduct(ctx context.Context, productID int64) ([]models.Variant, error) {
	var variants []models.Variant
	err := s.db.SelectContext(ctx, &variants,
		"SELECT "+variantCols+" FROM variants v JOIN products p ON p.id = v.product_id WHERE v.product_id = $1 ORDER BY v.id",
		productID)
	return variants, err
}

// GetVariantsByIDs retrieves variants (with owning product sale price)
// by id list in a single batch
func (s *Store) GetVariantsByIDs(ctx context.Context, ids []int64) ([]models.Variant, error) {
	if len(ids) == 0 {
		return []models.Variant{}, nil
	}

	query, args, err := sqlx.In(
		"SELECT "+variantCols+" FROM variants v JOIN products p ON p.id = v.product_id WHERE v.id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var variants []models.Variant
	err = s.db.SelectContext(ctx, &variants, query, args...)
	return variants, err
}
