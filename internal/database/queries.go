package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// Helper Functions
// =============================================================================

// parseTimestamp parses a timestamp from SQLite TEXT format.
// Returns the zero time if no known format matches.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

const gatheringColumns = `id, slug, name, description, rule, timezone, created_at, updated_at`

func scanGathering(row scanner) (*Gathering, error) {
	var (
		g                    Gathering
		description          sql.NullString
		ruleJSON             string
		createdAt, updatedAt string
	)
	if err := row.Scan(&g.ID, &g.Slug, &g.Name, &description, &ruleJSON, &g.Timezone, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(ruleJSON), &g.Rule); err != nil {
		return nil, fmt.Errorf("decode rule of gathering %d: %w", g.ID, err)
	}
	if description.Valid {
		g.Description = &description.String
	}
	g.CreatedAt = parseTimestamp(createdAt)
	g.UpdatedAt = parseTimestamp(updatedAt)
	return &g, nil
}

// prepare fills defaults and validates a gathering, returning its encoded rule.
func prepare(g *Gathering) (string, error) {
	if g.Slug == "" {
		g.Slug = Slugify(g.Name)
	}
	if g.Timezone == "" {
		g.Timezone = "UTC"
	}
	if err := g.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(g.Rule)
	if err != nil {
		return "", fmt.Errorf("encode rule: %w", err)
	}
	return string(data), nil
}

// =============================================================================
// Gathering Queries
// =============================================================================

// CreateGathering inserts a gathering and sets its ID.
// Returns ErrDuplicate if the slug is taken.
func (db *DB) CreateGathering(ctx context.Context, g *Gathering) error {
	if err := db.insertGathering(ctx, db.DB, g); err != nil {
		return err
	}

	// Read back the database defaults for the timestamps.
	created, err := db.GetGathering(ctx, g.ID)
	if err != nil {
		return fmt.Errorf("reload gathering: %w", err)
	}
	*g = *created
	return nil
}

// CreateGatherings inserts all gatherings in one transaction. Nothing is
// written if any insert fails.
func (db *DB) CreateGatherings(ctx context.Context, gs []*Gathering) error {
	return db.WithTx(ctx, func(tx *Tx) error {
		for _, g := range gs {
			if err := db.insertGathering(ctx, tx, g); err != nil {
				return fmt.Errorf("gathering %q: %w", g.Name, err)
			}
		}
		return nil
	})
}

func (db *DB) insertGathering(ctx context.Context, ex execer, g *Gathering) error {
	ruleJSON, err := prepare(g)
	if err != nil {
		return err
	}

	result, err := ex.ExecContext(ctx, `
		INSERT INTO gatherings (slug, name, description, rule, timezone)
		VALUES (?, ?, ?, ?, ?)
	`, g.Slug, g.Name, g.Description, ruleJSON, g.Timezone)
	if err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert gathering: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	g.ID = id

	db.logger.Debug("gathering created",
		"id", g.ID,
		"slug", g.Slug,
		"rule", g.Rule.String(),
	)
	return nil
}

// GetGathering retrieves a gathering by ID.
// Returns ErrNotFound if it doesn't exist.
func (db *DB) GetGathering(ctx context.Context, id int64) (*Gathering, error) {
	row := db.QueryRowContext(ctx, `SELECT `+gatheringColumns+` FROM gatherings WHERE id = ?`, id)
	g, err := scanGathering(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query gathering %d: %w", id, err)
	}
	return g, nil
}

// GetGatheringBySlug retrieves a gathering by slug.
// Returns ErrNotFound if it doesn't exist.
func (db *DB) GetGatheringBySlug(ctx context.Context, slug string) (*Gathering, error) {
	row := db.QueryRowContext(ctx, `SELECT `+gatheringColumns+` FROM gatherings WHERE slug = ?`, slug)
	g, err := scanGathering(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query gathering %q: %w", slug, err)
	}
	return g, nil
}

// ListGatherings returns gatherings ordered by name.
func (db *DB) ListGatherings(ctx context.Context, opts ListOptions) ([]Gathering, error) {
	query := `SELECT ` + gatheringColumns + ` FROM gatherings`
	var args []any
	if opts.Kind != "" {
		query += ` WHERE json_extract(rule, '$.kind') = ?`
		args = append(args, opts.Kind)
	}
	query += ` ORDER BY name, id`
	if opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query gatherings: %w", err)
	}
	defer rows.Close()

	gatherings := []Gathering{}
	for rows.Next() {
		g, err := scanGathering(rows)
		if err != nil {
			return nil, fmt.Errorf("scan gathering: %w", err)
		}
		gatherings = append(gatherings, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gatherings: %w", err)
	}
	return gatherings, nil
}

// CountGatherings returns the number of stored gatherings.
func (db *DB) CountGatherings(ctx context.Context) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM gatherings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count gatherings: %w", err)
	}
	return n, nil
}

// UpdateGathering replaces a gathering's fields.
// Returns ErrNotFound if it doesn't exist and ErrDuplicate if the new slug
// is taken.
func (db *DB) UpdateGathering(ctx context.Context, g *Gathering) error {
	ruleJSON, err := prepare(g)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `
		UPDATE gatherings
		SET slug = ?, name = ?, description = ?, rule = ?, timezone = ?, updated_at = datetime('now')
		WHERE id = ?
	`, g.Slug, g.Name, g.Description, ruleJSON, g.Timezone, g.ID)
	if err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update gathering: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	updated, err := db.GetGathering(ctx, g.ID)
	if err != nil {
		return fmt.Errorf("reload gathering: %w", err)
	}
	*g = *updated
	return nil
}

// DeleteGathering removes a gathering.
// Returns ErrNotFound if it doesn't exist.
func (db *DB) DeleteGathering(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM gatherings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete gathering: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
