// Package sqlite provides the relational ProductCatalog implementation
// backed by a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sibylcommerce/sibyl/internal/domain"
)

// Store is the SQLite-backed product catalog.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the catalog database at dbPath,
// applies pragmas and runs pending migrations.
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// enablePragmas sets SQLite pragmas for performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const productColumns = "id, name, slug, description, price_amount, price_currency, category, image_url, created_at"

// Create persists a product and assigns its identity. The identity is
// assigned exactly once: a product that already has one is rejected.
func (s *Store) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if p == nil {
		return nil, errors.New("product cannot be nil")
	}
	if p.ID != 0 {
		return nil, errors.New("product already has an identity")
	}
	if p.Name == "" {
		return nil, errors.New("product name cannot be empty")
	}
	if p.Category == "" {
		return nil, errors.New("product category cannot be empty")
	}

	stored := *p
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO products (name, slug, description, price_amount, price_currency, category, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, stored.Name, stored.Slug, stored.Description, stored.Price.Amount(), stored.Price.Currency(),
		stored.Category, stored.ImageURL, stored.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read inserted id: %w", err)
	}
	stored.ID = id

	return &stored, nil
}

// FindByID returns the product with the given identity.
func (s *Store) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = ?", id)

	return scanProduct(row)
}

// FindBySlug returns the product with the given URL slug.
func (s *Store) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE slug = ?", slug)

	return scanProduct(row)
}

// FindAll returns a page of products in insertion order.
func (s *Store) FindAll(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products ORDER BY id LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// FindByCategory returns up to limit products in the given category.
func (s *Store) FindByCategory(ctx context.Context, category string, limit int) ([]*domain.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE category = ? ORDER BY id LIMIT ?",
		category, limit)
	if err != nil {
		return nil, fmt.Errorf("query products by category: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// Categories returns the distinct category names, sorted.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT category FROM products ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// Count returns the total number of products.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}

	return count, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p         domain.Product
		amount    int64
		currency  string
		createdAt string
	)

	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &amount, &currency,
		&p.Category, &p.ImageURL, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}

	p.Price = domain.NewMoney(amount, currency)

	p.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &p, nil
}

func scanProducts(rows *sql.Rows) ([]*domain.Product, error) {
	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	return products, rows.Err()
}
