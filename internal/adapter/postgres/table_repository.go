package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
)

type tableRepository struct {
	db DB
}

func NewTableRepository(db DB) interfaces.TableRepository {
	return &tableRepository{db: db}
}

func (r *tableRepository) Save(ctx context.Context, table *domain.Table) error {
	created := table.CreatedAt
	if created.IsZero() {
		created = table.UpdatedAt
	}

	members := table.MergedMembers
	if members == nil {
		members = []string{}
	}

	query := `
		INSERT INTO dining_tables (id, number, capacity, status, merged_members, merged_into, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET number = EXCLUDED.number,
		    capacity = EXCLUDED.capacity,
		    status = EXCLUDED.status,
		    merged_members = EXCLUDED.merged_members,
		    merged_into = EXCLUDED.merged_into,
		    updated_at = EXCLUDED.updated_at
		WHERE dining_tables.updated_at <= EXCLUDED.updated_at
	`
	_, err := r.db.Exec(ctx, query,
		table.ID, table.Number, table.Capacity, table.Status, members, table.MergedInto, created, table.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert table: %w", err)
	}
	return nil
}

func (r *tableRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM dining_tables WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	return nil
}

func (r *tableRepository) LoadAll(ctx context.Context) ([]*domain.Table, error) {
	query := `
		SELECT id, number, capacity, status, merged_members, merged_into, created_at, updated_at
		FROM dining_tables
		ORDER BY number ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []*domain.Table
	for rows.Next() {
		var t domain.Table
		if err := rows.Scan(&t.ID, &t.Number, &t.Capacity, &t.Status, &t.MergedMembers, &t.MergedInto, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		if len(t.MergedMembers) == 0 {
			t.MergedMembers = nil
		}
		tables = append(tables, &t)
	}

	return tables, rows.Err()
}
