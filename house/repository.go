package house

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const houseColumns = `id, name, location, price::text, status, established_time, created_time, updated_time`

// sortColumns whitelists the properties a page may be ordered by.
var sortColumns = map[string]string{
	"id":              "id",
	"name":            "name",
	"location":        "location",
	"price":           "price",
	"status":          "status",
	"establishedTime": "established_time",
	"createdTime":     "created_time",
	"updatedTime":     "updated_time",
}

// PGRepository implements Store backed by PostgreSQL.
type PGRepository struct {
	pool   *pgxpool.Pool
	mapper Mapper
}

// NewRepository creates a PostgreSQL-backed house repository.
func NewRepository(pool *pgxpool.Pool, mapper Mapper) *PGRepository {
	return &PGRepository{pool: pool, mapper: mapper}
}

// List returns one page of houses. Count and content are read in a single
// repeatable-read snapshot so the totals describe the returned rows.
func (r *PGRepository) List(ctx context.Context, req PageRequest) (Page, error) {
	req = req.Normalize()
	orderBy, err := orderClause(req.Sort)
	if err != nil {
		return Page{}, err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return Page{}, fmt.Errorf("house: begin list tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var total int64
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM houses`).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("house: count: %w", err)
	}

	query := `SELECT ` + houseColumns + ` FROM houses ORDER BY ` + orderBy + ` LIMIT $1 OFFSET $2`
	rows, err := tx.Query(ctx, query, req.Size, req.Offset())
	if err != nil {
		return Page{}, fmt.Errorf("house: list: %w", err)
	}
	defer rows.Close()

	content := make([]House, 0, req.Size)
	for rows.Next() {
		h, err := r.scanHouse(rows)
		if err != nil {
			return Page{}, fmt.Errorf("house: scan: %w", err)
		}
		content = append(content, h)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("house: iterate: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Page{}, fmt.Errorf("house: commit list tx: %w", err)
	}

	return NewPage(content, req, total), nil
}

// GetByID fetches a house by its primary key.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (House, error) {
	query := `SELECT ` + houseColumns + ` FROM houses WHERE id = $1`

	h, err := r.scanHouse(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return House{}, ErrNotFound
		}
		return House{}, fmt.Errorf("house: query by id: %w", err)
	}
	return h, nil
}

// Insert stores h and returns the row as persisted, including its new id.
func (r *PGRepository) Insert(ctx context.Context, h House) (House, error) {
	query := `
		INSERT INTO houses (name, location, price, status, established_time, created_time, updated_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + houseColumns

	row := r.mapper.ToRow(h)
	saved, err := r.scanHouse(r.pool.QueryRow(ctx, query,
		row.Name,
		row.Location,
		row.Price,
		row.Status,
		row.EstablishedTime,
		row.CreatedTime,
		row.UpdatedTime,
	))
	if err != nil {
		return House{}, fmt.Errorf("house: insert: %w", err)
	}
	return saved, nil
}

// Delete removes the house with the given id. Deleting a missing id is not
// an error.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM houses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("house: delete: %w", err)
	}
	return nil
}

func (r *PGRepository) scanHouse(row pgx.Row) (House, error) {
	var rec Row
	err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.Location,
		&rec.Price,
		&rec.Status,
		&rec.EstablishedTime,
		&rec.CreatedTime,
		&rec.UpdatedTime,
	)
	if err != nil {
		return House{}, err
	}
	return r.mapper.FromRow(rec)
}

func orderClause(orders []Order) (string, error) {
	parts := make([]string, 0, len(orders)+1)
	hasID := false
	for _, o := range orders {
		col, ok := sortColumns[o.Property]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrInvalidSort, o.Property)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		if col == "id" {
			hasID = true
		}
		parts = append(parts, col+" "+dir+" NULLS LAST")
	}
	// id breaks ties so page boundaries are stable
	if !hasID {
		parts = append(parts, "id ASC")
	}
	return strings.Join(parts, ", "), nil
}
