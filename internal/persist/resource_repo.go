package persist

import (
	"context"
	"fmt"

	"github.com/enginert/runtime/internal/resource"
	"github.com/jackc/pgx/v5"
)

// ResourceRepo stores the resource id table in PostgreSQL. It implements
// resource.MetadataStore.
type ResourceRepo struct {
	db *DB
}

var _ resource.MetadataStore = (*ResourceRepo)(nil)

func NewResourceRepo(db *DB) *ResourceRepo {
	return &ResourceRepo{db: db}
}

func (r *ResourceRepo) Load(ctx context.Context) ([]resource.Entry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, path, digest, retired FROM resources ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query resources: %w", err)
	}
	defer rows.Close()

	var out []resource.Entry
	for rows.Next() {
		var (
			id int32
			e  resource.Entry
		)
		if err := rows.Scan(&id, &e.Path, &e.Digest, &e.Retired); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		if id < 0 || id > resource.MaxID {
			return nil, fmt.Errorf("resource %q: id %d out of range", e.Path, id)
		}
		e.ID = resource.ID(id)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read resources: %w", err)
	}
	return out, nil
}

// Save replaces the whole table in one transaction, bulk-loading the rows
// with COPY.
func (r *ResourceRepo) Save(ctx context.Context, entries []resource.Entry) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM resources`); err != nil {
			return fmt.Errorf("resources clear: %w", err)
		}
		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"resources"},
			[]string{"id", "path", "digest", "retired"},
			pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
				e := entries[i]
				return []any{int32(e.ID), e.Path, e.Digest, e.Retired}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("resources copy: %w", err)
		}
		if int(n) != len(entries) {
			return fmt.Errorf("resources copy: wrote %d of %d rows", n, len(entries))
		}
		return nil
	})
}
