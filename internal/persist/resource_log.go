package persist

import (
	"context"
	"fmt"

	"github.com/enginert/runtime/internal/resource"
	"github.com/jackc/pgx/v5"
)

// Change kinds recorded in resource_log.
const (
	ChangeAdded    = "added"
	ChangeRestored = "restored"
	ChangeEvicted  = "evicted"
	ChangeModified = "modified"
)

// ResourceLogRepo appends refresh outcomes to an audit log so asset churn can
// be inspected after the fact.
type ResourceLogRepo struct {
	db *DB
}

func NewResourceLogRepo(db *DB) *ResourceLogRepo {
	return &ResourceLogRepo{db: db}
}

// AppendReport writes every change in rep in a single transaction. An empty
// report writes nothing.
func (r *ResourceLogRepo) AppendReport(ctx context.Context, rep resource.Report) error {
	rows := reportRows(rep)
	if len(rows) == 0 {
		return nil
	}
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, row := range rows {
			batch.Queue(`INSERT INTO resource_log (resource_id, change) VALUES ($1, $2)`, int32(row.id), row.change)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("resource log insert: %w", err)
		}
		return nil
	})
}

type logRow struct {
	id     resource.ID
	change string
}

func reportRows(rep resource.Report) []logRow {
	var rows []logRow
	add := func(ids []resource.ID, change string) {
		for _, id := range ids {
			rows = append(rows, logRow{id: id, change: change})
		}
	}
	add(rep.Added, ChangeAdded)
	add(rep.Restored, ChangeRestored)
	add(rep.Evicted, ChangeEvicted)
	add(rep.Modified, ChangeModified)
	return rows
}
