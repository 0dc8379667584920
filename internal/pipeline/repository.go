package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines persistence operations for pipelines and their
// endpoint and device memberships.
type Repository interface {
	// Pipeline CRUD
	GetByID(ctx context.Context, id string) (*Pipeline, error)
	List(ctx context.Context) ([]Pipeline, error)
	Create(ctx context.Context, p *Pipeline) error
	Update(ctx context.Context, p *Pipeline) error
	Delete(ctx context.Context, id string) error

	// Endpoint membership. Attach appends at the end of the order;
	// both are idempotent at the storage level.
	AttachEndpoint(ctx context.Context, pipelineID, endpointID string) error
	DetachEndpoint(ctx context.Context, pipelineID, endpointID string) error

	// Device membership. AttachDevice returns ErrDeviceAlreadyAssigned
	// when the device holds a row in any pipeline, including this one.
	AttachDevice(ctx context.Context, pipelineID, deviceID string) error
	DetachDevice(ctx context.Context, pipelineID, deviceID string) error

	// Scrubbing for entity deletion.
	DetachDeviceEverywhere(ctx context.Context, deviceID string) error
	DetachEndpointEverywhere(ctx context.Context, endpointID string) error
}

// SQLiteRepository implements Repository using SQLite. Memberships live
// in the pipeline_endpoints and pipeline_devices junction tables; the
// latter carries a UNIQUE constraint on device_id so a device can never
// be attached to two pipelines even if the coordinator misbehaves.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed pipeline repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID retrieves a pipeline with its memberships.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Pipeline, error) {
	query := `
		SELECT id, owner_id, name, description, status, execution_mode,
			created_at, updated_at
		FROM pipelines
		WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	p, err := scanPipelineRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPipelineNotFound
		}
		return nil, fmt.Errorf("querying pipeline by id: %w", err)
	}

	if p.EndpointIDs, err = r.memberIDs(ctx,
		"SELECT endpoint_id FROM pipeline_endpoints WHERE pipeline_id = ? ORDER BY sort_order", id); err != nil {
		return nil, err
	}
	if p.DeviceIDs, err = r.memberIDs(ctx,
		"SELECT device_id FROM pipeline_devices WHERE pipeline_id = ? ORDER BY sort_order", id); err != nil {
		return nil, err
	}

	return p, nil
}

// List retrieves all pipelines with memberships in creation order.
// Memberships are loaded with two bulk queries rather than per pipeline.
func (r *SQLiteRepository) List(ctx context.Context) ([]Pipeline, error) {
	query := `
		SELECT id, owner_id, name, description, status, execution_mode,
			created_at, updated_at
		FROM pipelines
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying pipelines: %w", err)
	}
	defer rows.Close()

	var pipelines []Pipeline
	index := make(map[string]int)
	for rows.Next() {
		p, err := scanPipelineRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning pipeline: %w", err)
		}
		index[p.ID] = len(pipelines)
		pipelines = append(pipelines, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pipelines: %w", err)
	}

	if err := r.loadMemberships(ctx,
		"SELECT pipeline_id, endpoint_id FROM pipeline_endpoints ORDER BY pipeline_id, sort_order",
		func(pid, member string) {
			if i, ok := index[pid]; ok {
				pipelines[i].EndpointIDs = append(pipelines[i].EndpointIDs, member)
			}
		}); err != nil {
		return nil, err
	}
	if err := r.loadMemberships(ctx,
		"SELECT pipeline_id, device_id FROM pipeline_devices ORDER BY pipeline_id, sort_order",
		func(pid, member string) {
			if i, ok := index[pid]; ok {
				pipelines[i].DeviceIDs = append(pipelines[i].DeviceIDs, member)
			}
		}); err != nil {
		return nil, err
	}

	return pipelines, nil
}

// Create inserts a new pipeline. Memberships are not written here; a
// freshly created pipeline is always empty.
func (r *SQLiteRepository) Create(ctx context.Context, p *Pipeline) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	query := `
		INSERT INTO pipelines (
			id, owner_id, name, description, status, execution_mode,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.OwnerID,
		p.Name,
		p.Description,
		string(p.Status),
		string(p.ExecutionMode),
		p.CreatedAt.Format(time.RFC3339),
		p.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrPipelineExists
		}
		return fmt.Errorf("inserting pipeline: %w", err)
	}

	return nil
}

// Update modifies pipeline metadata. Memberships are untouched.
func (r *SQLiteRepository) Update(ctx context.Context, p *Pipeline) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE pipelines
		SET name = ?, description = ?, status = ?, execution_mode = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		p.Name,
		p.Description,
		string(p.Status),
		string(p.ExecutionMode),
		p.UpdatedAt.Format(time.RFC3339),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating pipeline: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrPipelineNotFound
	}

	return nil
}

// Delete removes a pipeline and its membership rows in one transaction.
// Endpoint junction rows are dropped here; the coordinator guarantees
// no device rows remain.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is no-op after commit

	if _, execErr := tx.ExecContext(ctx, "DELETE FROM pipeline_endpoints WHERE pipeline_id = ?", id); execErr != nil {
		return fmt.Errorf("deleting pipeline endpoints: %w", execErr)
	}
	if _, execErr := tx.ExecContext(ctx, "DELETE FROM pipeline_devices WHERE pipeline_id = ?", id); execErr != nil {
		return fmt.Errorf("deleting pipeline devices: %w", execErr)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM pipelines WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting pipeline: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrPipelineNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// AttachEndpoint appends an endpoint to a pipeline's membership.
// Attaching an endpoint that is already a member is a no-op.
func (r *SQLiteRepository) AttachEndpoint(ctx context.Context, pipelineID, endpointID string) error {
	query := `
		INSERT INTO pipeline_endpoints (pipeline_id, endpoint_id, sort_order)
		VALUES (?, ?, (
			SELECT COALESCE(MAX(sort_order), -1) + 1
			FROM pipeline_endpoints WHERE pipeline_id = ?
		))
		ON CONFLICT (pipeline_id, endpoint_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, pipelineID, endpointID, pipelineID); err != nil {
		return fmt.Errorf("attaching endpoint: %w", err)
	}
	return r.touch(ctx, pipelineID)
}

// DetachEndpoint removes an endpoint from a pipeline's membership.
// Detaching a non-member is a no-op.
func (r *SQLiteRepository) DetachEndpoint(ctx context.Context, pipelineID, endpointID string) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM pipeline_endpoints WHERE pipeline_id = ? AND endpoint_id = ?",
		pipelineID, endpointID); err != nil {
		return fmt.Errorf("detaching endpoint: %w", err)
	}
	return r.touch(ctx, pipelineID)
}

// AttachDevice appends a device to a pipeline's membership. The UNIQUE
// constraint on device_id rejects the insert when the device already
// sits in any pipeline.
func (r *SQLiteRepository) AttachDevice(ctx context.Context, pipelineID, deviceID string) error {
	query := `
		INSERT INTO pipeline_devices (pipeline_id, device_id, sort_order)
		VALUES (?, ?, (
			SELECT COALESCE(MAX(sort_order), -1) + 1
			FROM pipeline_devices WHERE pipeline_id = ?
		))`

	if _, err := r.db.ExecContext(ctx, query, pipelineID, deviceID, pipelineID); err != nil {
		if isUniqueConstraintError(err) {
			return ErrDeviceAlreadyAssigned
		}
		return fmt.Errorf("attaching device: %w", err)
	}
	return r.touch(ctx, pipelineID)
}

// DetachDevice removes a device from a pipeline's membership.
// Detaching a non-member is a no-op.
func (r *SQLiteRepository) DetachDevice(ctx context.Context, pipelineID, deviceID string) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM pipeline_devices WHERE pipeline_id = ? AND device_id = ?",
		pipelineID, deviceID); err != nil {
		return fmt.Errorf("detaching device: %w", err)
	}
	return r.touch(ctx, pipelineID)
}

// DetachDeviceEverywhere removes a device from whichever pipeline holds
// it. Used when the device itself is being deleted.
func (r *SQLiteRepository) DetachDeviceEverywhere(ctx context.Context, deviceID string) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM pipeline_devices WHERE device_id = ?", deviceID); err != nil {
		return fmt.Errorf("scrubbing device memberships: %w", err)
	}
	return nil
}

// DetachEndpointEverywhere removes an endpoint from every pipeline that
// references it. Used when the endpoint itself is being deleted.
func (r *SQLiteRepository) DetachEndpointEverywhere(ctx context.Context, endpointID string) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM pipeline_endpoints WHERE endpoint_id = ?", endpointID); err != nil {
		return fmt.Errorf("scrubbing endpoint memberships: %w", err)
	}
	return nil
}

// touch bumps the pipeline's updated_at after a membership change.
func (r *SQLiteRepository) touch(ctx context.Context, pipelineID string) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE pipelines SET updated_at = ? WHERE id = ?",
		time.Now().UTC().Format(time.RFC3339), pipelineID); err != nil {
		return fmt.Errorf("touching pipeline: %w", err)
	}
	return nil
}

// memberIDs runs a single-column query and collects the ids.
func (r *SQLiteRepository) memberIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying memberships: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning membership: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating memberships: %w", err)
	}

	return ids, nil
}

// loadMemberships streams (pipeline_id, member_id) pairs into collect.
func (r *SQLiteRepository) loadMemberships(ctx context.Context, query string, collect func(pid, member string)) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("querying memberships: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pid, member string
		if err := rows.Scan(&pid, &member); err != nil {
			return fmt.Errorf("scanning membership: %w", err)
		}
		collect(pid, member)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating memberships: %w", err)
	}

	return nil
}

// pipelineRowScanner is implemented by sql.Row and sql.Rows.
type pipelineRowScanner interface {
	Scan(dest ...any) error
}

func scanPipelineRow(scanner pipelineRowScanner) (*Pipeline, error) {
	var p Pipeline
	var status, mode string
	var createdAt, updatedAt string

	err := scanner.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Name,
		&p.Description,
		&status,
		&mode,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Status = Status(status)
	p.ExecutionMode = ExecutionMode(mode)
	p.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	p.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &p, nil
}

// isUniqueConstraintError checks for SQLite unique constraint violations.
func isUniqueConstraintError(err error) bool {
	return err != nil && !errors.Is(err, sql.ErrNoRows) &&
		(strings.Contains(err.Error(), "UNIQUE constraint failed") ||
			strings.Contains(err.Error(), "unique constraint"))
}
