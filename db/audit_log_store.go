package db

import (
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/maxpert/pubcfg/model"
	"github.com/maxpert/pubcfg/telemetry"
)

var auditColumns = []interface{}{
	"id", "publisher_id", "action", "field_name",
	"old_value", "new_value", "changed_by", "changed_at",
}

// AuditLogStore is the durable, append-only audit trail. Entries are never
// mutated or deleted except through the publisher cascade.
type AuditLogStore struct {
	store *Store
}

// NewAuditLogStore creates an AuditLogStore backed by the given store
func NewAuditLogStore(store *Store) *AuditLogStore {
	return &AuditLogStore{store: store}
}

// Create appends one entry and returns it with its assigned id and
// timestamp.
func (s *AuditLogStore) Create(input model.AuditLogInput) (*model.AuditLog, error) {
	tx, err := s.store.writeDB.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	entry, err := s.insertTx(tx, input)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit audit entry: %w", err)
	}
	return entry, nil
}

// CreateBatch appends all entries in one transaction; either all make it
// or none do. Entries come back in input order with their assigned ids.
func (s *AuditLogStore) CreateBatch(inputs []model.AuditLogInput) ([]model.AuditLog, error) {
	tx, err := s.store.writeDB.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	entries := make([]model.AuditLog, 0, len(inputs))
	for _, input := range inputs {
		entry, err := s.insertTx(tx, input)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit audit batch: %w", err)
	}
	return entries, nil
}

// insertTx appends one entry inside an existing transaction and re-reads
// it so the caller sees the assigned id and server timestamp. Also used by
// PublisherStore to fold audit writes into its mutation transactions.
func (s *AuditLogStore) insertTx(tx *sql.Tx, input model.AuditLogInput) (*model.AuditLog, error) {
	result, err := tx.Exec(`
		INSERT INTO audit_logs (publisher_id, action, field_name, old_value, new_value, changed_by)
		VALUES (?, ?, ?, ?, ?, ?)
	`, input.PublisherID, string(input.Action), input.FieldName, input.OldValue, input.NewValue, input.ChangedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to insert audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read audit entry id: %w", err)
	}

	row := tx.QueryRow(`
		SELECT id, publisher_id, action, field_name, old_value, new_value, changed_by, changed_at
		FROM audit_logs WHERE id = ?
	`, id)

	entry, err := scanAuditLog(row)
	if err != nil {
		return nil, err
	}

	telemetry.AuditEntriesTotal.With(string(input.Action)).Inc()
	return entry, nil
}

// FindByPublisherID returns one publisher's trail, newest first, paginated.
func (s *AuditLogStore) FindByPublisherID(publisherID string, page, limit int) (*model.AuditLogList, error) {
	ds := dialect.From("audit_logs").Where(goqu.C("publisher_id").Eq(publisherID))
	return s.findPage(ds, page, limit)
}

// FindAll returns the global trail across all publishers, newest first.
func (s *AuditLogStore) FindAll(page, limit int) (*model.AuditLogList, error) {
	return s.findPage(dialect.From("audit_logs"), page, limit)
}

func (s *AuditLogStore) findPage(ds *goqu.SelectDataset, page, limit int) (*model.AuditLogList, error) {
	countSQL, countArgs, err := ds.Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalItems int
	if err := s.store.readDB.QueryRow(countSQL, countArgs...).Scan(&totalItems); err != nil {
		return nil, fmt.Errorf("failed to count audit entries: %w", err)
	}

	offset := (page - 1) * limit
	if offset < 0 {
		offset = 0
	}

	// id is the tiebreak for entries sharing a timestamp, so ordering is
	// deterministic within a batch.
	dataSQL, dataArgs, err := ds.Select(auditColumns...).
		Order(goqu.C("changed_at").Desc(), goqu.C("id").Desc()).
		Limit(uint(limit)).
		Offset(uint(offset)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := s.store.readDB.Query(dataSQL, dataArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	data := []model.AuditLog{}
	for rows.Next() {
		entry, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		data = append(data, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}

	return &model.AuditLogList{
		Data: data,
		Pagination: model.Pagination{
			CurrentPage: page,
			PageSize:    limit,
			TotalItems:  totalItems,
			TotalPages:  totalPages(totalItems, limit),
		},
	}, nil
}

func scanAuditLog(row scanner) (*model.AuditLog, error) {
	var entry model.AuditLog
	var action string
	var fieldName, oldValue, newValue sql.NullString

	err := row.Scan(
		&entry.ID, &entry.PublisherID, &action, &fieldName,
		&oldValue, &newValue, &entry.ChangedBy, &entry.ChangedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit entry: %w", err)
	}

	entry.Action = model.AuditAction(action)
	entry.FieldName = nullableString(fieldName)
	entry.OldValue = nullableString(oldValue)
	entry.NewValue = nullableString(newValue)
	return &entry, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}
