// Package repository provides PostgreSQL persistence for the API server:
// users, catalog, carts, and orders.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/evermart/storefront/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrInsufficientStock is returned when a stock decrement would go negative.
var ErrInsufficientStock = errors.New("insufficient stock")

// PostgresUserRepository implements user lookups and profile updates
// against a PostgreSQL database.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a PostgresUserRepository with the given
// database connection.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// GetByEmail fetches the user with the given email. The users table acts
// as the sign-in allow-list: a missing row means the identity is not
// permitted, reported as ErrNotFound.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (models.Principal, error) {
	return r.getOne(ctx, `SELECT id, name, email, phone, address, role FROM users WHERE email = $1`, email)
}

// GetByID fetches the user with the given ID.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (models.Principal, error) {
	return r.getOne(ctx, `SELECT id, name, email, phone, address, role FROM users WHERE id = $1`, id)
}

// UpdateProfile applies the non-empty fields of the patch and returns the
// merged principal.
func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, id, name, phone, address string) (models.Principal, error) {
	var p models.Principal
	err := r.DB.QueryRowContext(ctx, `
		UPDATE users
		   SET name    = COALESCE(NULLIF($2, ''), name),
		       phone   = COALESCE(NULLIF($3, ''), phone),
		       address = COALESCE(NULLIF($4, ''), address)
		 WHERE id = $1
		 RETURNING id, name, email, phone, address, role
	`, id, name, phone, address).Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Address, &p.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Principal{}, ErrNotFound
	}
	if err != nil {
		return models.Principal{}, fmt.Errorf("UpdateProfile: %w", err)
	}
	return p, nil
}

func (r *PostgresUserRepository) getOne(ctx context.Context, query, arg string) (models.Principal, error) {
	var p models.Principal
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Address, &p.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Principal{}, ErrNotFound
	}
	if err != nil {
		return models.Principal{}, fmt.Errorf("get user: %w", err)
	}
	return p, nil
}
