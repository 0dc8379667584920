package endpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for endpoint persistence operations.
type Repository interface {
	// GetByID retrieves an endpoint by id.
	// Returns ErrEndpointNotFound if it does not exist.
	GetByID(ctx context.Context, id string) (*Endpoint, error)

	// List retrieves all endpoints in creation order.
	List(ctx context.Context) ([]Endpoint, error)

	// Create inserts a new endpoint.
	Create(ctx context.Context, e *Endpoint) error

	// Update modifies an existing endpoint.
	// Returns ErrEndpointNotFound if it does not exist.
	Update(ctx context.Context, e *Endpoint) error

	// Delete removes an endpoint by id.
	// Returns ErrEndpointNotFound if it does not exist.
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID retrieves an endpoint by id.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Endpoint, error) {
	query := `
		SELECT id, owner_id, name, data_push_endpoint, auth_endpoint,
			username, password, created_at, updated_at
		FROM endpoints
		WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	e, err := scanEndpointRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEndpointNotFound
		}
		return nil, fmt.Errorf("querying endpoint by id: %w", err)
	}
	return e, nil
}

// List retrieves all endpoints in creation order.
func (r *SQLiteRepository) List(ctx context.Context) ([]Endpoint, error) {
	query := `
		SELECT id, owner_id, name, data_push_endpoint, auth_endpoint,
			username, password, created_at, updated_at
		FROM endpoints
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying endpoints: %w", err)
	}
	defer rows.Close()

	var endpoints []Endpoint
	for rows.Next() {
		e, err := scanEndpointRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning endpoint: %w", err)
		}
		endpoints = append(endpoints, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating endpoints: %w", err)
	}

	return endpoints, nil
}

// Create inserts a new endpoint.
func (r *SQLiteRepository) Create(ctx context.Context, e *Endpoint) error {
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	query := `
		INSERT INTO endpoints (
			id, owner_id, name, data_push_endpoint, auth_endpoint,
			username, password, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.OwnerID,
		e.Name,
		e.DataPushEndpoint,
		e.AuthEndpoint,
		e.Username,
		e.Password,
		e.CreatedAt.Format(time.RFC3339),
		e.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrEndpointExists
		}
		return fmt.Errorf("inserting endpoint: %w", err)
	}

	return nil
}

// Update modifies an existing endpoint.
func (r *SQLiteRepository) Update(ctx context.Context, e *Endpoint) error {
	e.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE endpoints
		SET name = ?, data_push_endpoint = ?, auth_endpoint = ?,
			username = ?, password = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		e.Name,
		e.DataPushEndpoint,
		e.AuthEndpoint,
		e.Username,
		e.Password,
		e.UpdatedAt.Format(time.RFC3339),
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating endpoint: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrEndpointNotFound
	}

	return nil
}

// Delete removes an endpoint by id.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM endpoints WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting endpoint: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrEndpointNotFound
	}

	return nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEndpointRow(scanner rowScanner) (*Endpoint, error) {
	var e Endpoint
	var createdAt, updatedAt string

	err := scanner.Scan(
		&e.ID,
		&e.OwnerID,
		&e.Name,
		&e.DataPushEndpoint,
		&e.AuthEndpoint,
		&e.Username,
		&e.Password,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	e.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &e, nil
}
