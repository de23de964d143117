package auditlog

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
// The table carries no UPDATE or DELETE path anywhere in the codebase.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, entry Entry) (Entry, error) {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return Entry{}, err
	}
	err = r.db.QueryRow(ctx, `INSERT INTO audit_log_entries (event_id, invoice_id, actor_id, change_type, payload)
VALUES ($1,$2,$3,$4,$5) RETURNING id, created_at`,
		entry.EventID, entry.InvoiceID, entry.ActorID, entry.ChangeType, payload).
		Scan(&entry.ID, &entry.CreatedAt)
	return entry, err
}

func (r *repository) ListByInvoice(ctx context.Context, invoiceID int64) ([]Entry, error) {
	rows, err := r.db.Query(ctx, `SELECT id, event_id, invoice_id, actor_id, change_type, payload, created_at
FROM audit_log_entries WHERE invoice_id = $1 ORDER BY id ASC`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		var payload []byte
		if err := rows.Scan(&e.ID, &e.EventID, &e.InvoiceID, &e.ActorID, &e.ChangeType, &payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &e.Payload); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
