package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/maxpert/pubcfg/audit"
	"github.com/maxpert/pubcfg/model"
)

var dialect = goqu.Dialect("sqlite3")

var publisherColumns = []interface{}{
	"publisher_id", "alias_name", "file_name", "is_active",
	"publisher_dashboard", "monitor_dashboard", "qa_status_dashboard",
	"custom_css", "tags", "allowed_domains", "notes",
}

// PublisherStore is the sole authority for publisher and page persistence.
// Every mutation writes its audit rows in the same transaction as the data
// change, so a committed mutation always has its trail.
type PublisherStore struct {
	store     *Store
	audits    *AuditLogStore
	changedBy string
}

// NewPublisherStore creates a PublisherStore recording changes as changedBy
func NewPublisherStore(store *Store, audits *AuditLogStore, changedBy string) *PublisherStore {
	return &PublisherStore{
		store:     store,
		audits:    audits,
		changedBy: changedBy,
	}
}

// Ping verifies the backing database is reachable
func (s *PublisherStore) Ping() error {
	return s.store.Ping()
}

// Count returns the total number of publisher records
func (s *PublisherStore) Count() (int, error) {
	var count int
	if err := s.store.readDB.QueryRow("SELECT COUNT(*) FROM publishers").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count publishers: %w", err)
	}
	return count, nil
}

// FindAll returns publishers matching the optional alias substring and
// active filter, ordered by alias, with a pagination envelope. The store
// does not clamp page; CurrentPage echoes the request verbatim.
func (s *PublisherStore) FindAll(search string, isActive *bool, page, limit int) (*model.PublisherList, error) {
	ds := dialect.From("publishers")

	if trimmed := strings.TrimSpace(search); trimmed != "" {
		ds = ds.Where(goqu.C("alias_name").Like("%" + trimmed + "%"))
	}
	if isActive != nil {
		ds = ds.Where(goqu.C("is_active").Eq(boolToInt(*isActive)))
	}

	countSQL, countArgs, err := ds.Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalItems int
	if err := s.store.readDB.QueryRow(countSQL, countArgs...).Scan(&totalItems); err != nil {
		return nil, fmt.Errorf("failed to count publishers: %w", err)
	}

	offset := (page - 1) * limit
	if offset < 0 {
		offset = 0
	}

	dataSQL, dataArgs, err := ds.Select(publisherColumns...).
		Order(goqu.C("alias_name").Asc()).
		Limit(uint(limit)).
		Offset(uint(offset)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := s.store.readDB.Query(dataSQL, dataArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query publishers: %w", err)
	}
	defer rows.Close()

	data := []model.Publisher{}
	for rows.Next() {
		pub, err := scanPublisher(rows)
		if err != nil {
			return nil, err
		}
		data = append(data, *pub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate publishers: %w", err)
	}

	for i := range data {
		pages, err := s.findPages(data[i].PublisherID)
		if err != nil {
			return nil, err
		}
		data[i].Pages = pages
	}

	return &model.PublisherList{
		Data: data,
		Pagination: model.Pagination{
			CurrentPage: page,
			PageSize:    limit,
			TotalItems:  totalItems,
			TotalPages:  totalPages(totalItems, limit),
		},
	}, nil
}

// FindByPublisherID returns one publisher with its pages, or ErrNotFound.
func (s *PublisherStore) FindByPublisherID(publisherID string) (*model.Publisher, error) {
	query, args, err := dialect.From("publishers").
		Select(publisherColumns...).
		Where(goqu.C("publisher_id").Eq(publisherID)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build publisher query: %w", err)
	}

	row := s.store.readDB.QueryRow(query, args...)
	pub, err := scanPublisher(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	pages, err := s.findPages(publisherID)
	if err != nil {
		return nil, err
	}
	pub.Pages = pages
	return pub, nil
}

func (s *PublisherStore) findPages(publisherID string) ([]model.Page, error) {
	query, args, err := dialect.From("pages").
		Select("page_type", "selector", "position").
		Where(goqu.C("publisher_id").Eq(publisherID)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build pages query: %w", err)
	}

	rows, err := s.store.readDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	pages := []model.Page{}
	for rows.Next() {
		var p model.Page
		if err := rows.Scan(&p.PageType, &p.Selector, &p.Position); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// Create inserts the publisher, its pages and a CREATE audit entry carrying
// the full serialized publisher, all in one transaction. A missing
// PublisherID is generated.
func (s *PublisherStore) Create(publisher model.Publisher) (*model.Publisher, error) {
	if publisher.PublisherID == "" {
		publisher.PublisherID = uuid.NewString()
	}

	snapshot, err := json.Marshal(publisher)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize publisher: %w", err)
	}

	tx, err := s.store.writeDB.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO publishers (
			publisher_id, file_name, alias_name, is_active, publisher_dashboard,
			monitor_dashboard, qa_status_dashboard, custom_css, tags,
			allowed_domains, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		publisher.PublisherID,
		publisher.Filename,
		publisher.AliasName,
		boolToInt(publisher.IsActive),
		nullIfEmpty(publisher.PublisherDashboard),
		nullIfEmpty(publisher.MonitorDashboard),
		nullIfEmpty(publisher.QAStatusDashboard),
		nullIfEmpty(publisher.CustomCSS),
		marshalList(publisher.Tags),
		marshalList(publisher.AllowedDomains),
		nullIfEmpty(publisher.Notes),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert publisher: %w", err)
	}

	if err := insertPagesTx(tx, publisher.PublisherID, publisher.Pages); err != nil {
		return nil, err
	}

	created := string(snapshot)
	_, err = s.audits.insertTx(tx, model.AuditLogInput{
		PublisherID: publisher.PublisherID,
		Action:      model.AuditActionCreate,
		NewValue:    &created,
		ChangedBy:   s.changedBy,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit create: %w", err)
	}

	log.Debug().Str("publisher_id", publisher.PublisherID).Msg("Publisher created")
	return &publisher, nil
}

// Update applies a partial update. Absent fields keep their stored values;
// a present pages field fully replaces the page set. Audit entries for the
// diff are written in the same transaction. Returns a fresh read of the
// row, or ErrNotFound when the publisher does not exist.
func (s *PublisherStore) Update(publisherID string, patch model.PublisherPatch) (*model.Publisher, error) {
	existing, err := s.FindByPublisherID(publisherID)
	if err != nil {
		return nil, err
	}

	tx, err := s.store.writeDB.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// COALESCE keeps alias/filename/active when absent; the optional
	// columns are written unconditionally, passing through the existing
	// value for absent fields so they are not nulled.
	_, err = tx.Exec(`
		UPDATE publishers SET
			alias_name = COALESCE(?, alias_name),
			file_name = COALESCE(?, file_name),
			is_active = COALESCE(?, is_active),
			publisher_dashboard = ?,
			monitor_dashboard = ?,
			qa_status_dashboard = ?,
			custom_css = ?,
			tags = ?,
			allowed_domains = ?,
			notes = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE publisher_id = ?
	`,
		patch.AliasName,
		patch.Filename,
		boolPtrToInt(patch.IsActive),
		stringOr(patch.PublisherDashboard, existing.PublisherDashboard),
		stringOr(patch.MonitorDashboard, existing.MonitorDashboard),
		stringOr(patch.QAStatusDashboard, existing.QAStatusDashboard),
		stringOr(patch.CustomCSS, existing.CustomCSS),
		listOr(patch.Tags, existing.Tags),
		listOr(patch.AllowedDomains, existing.AllowedDomains),
		stringOr(patch.Notes, existing.Notes),
		publisherID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update publisher: %w", err)
	}

	if patch.Pages != nil {
		// Full replacement, even when the new set is identical.
		if _, err := tx.Exec("DELETE FROM pages WHERE publisher_id = ?", publisherID); err != nil {
			return nil, fmt.Errorf("failed to delete pages: %w", err)
		}
		if err := insertPagesTx(tx, publisherID, *patch.Pages); err != nil {
			return nil, err
		}
	}

	entries := audit.GenerateAuditLogs(publisherID, *existing, patch, s.changedBy)
	for _, entry := range entries {
		if _, err := s.audits.insertTx(tx, entry); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}

	log.Debug().
		Str("publisher_id", publisherID).
		Int("audit_entries", len(entries)).
		Msg("Publisher updated")
	return s.FindByPublisherID(publisherID)
}

// Delete removes the publisher; pages and audit entries go with it via
// cascade. Returns whether a row was actually removed. Deletions are not
// audited (the trail would be cascade-deleted anyway).
func (s *PublisherStore) Delete(publisherID string) (bool, error) {
	existing, err := s.FindByPublisherID(publisherID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, err
	}

	result, err := s.store.writeDB.Exec("DELETE FROM publishers WHERE publisher_id = ?", publisherID)
	if err != nil {
		return false, fmt.Errorf("failed to delete publisher: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}

	if affected > 0 && existing != nil {
		log.Debug().
			Str("publisher_id", publisherID).
			Str("alias", existing.AliasName).
			Msg("Publisher deleted")
	}
	return affected > 0, nil
}

func insertPagesTx(tx *sql.Tx, publisherID string, pages []model.Page) error {
	if len(pages) == 0 {
		return nil
	}
	stmt, err := tx.Prepare("INSERT INTO pages (publisher_id, page_type, selector, position) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer stmt.Close()

	for _, page := range pages {
		if _, err := stmt.Exec(publisherID, page.PageType, page.Selector, page.Position); err != nil {
			return fmt.Errorf("failed to insert page: %w", err)
		}
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPublisher(row scanner) (*model.Publisher, error) {
	var (
		pub                            model.Publisher
		fileName                       sql.NullString
		isActive                       int
		pubDash, monDash, qaDash       sql.NullString
		customCSS, tags, domains, note sql.NullString
	)

	err := row.Scan(
		&pub.PublisherID, &pub.AliasName, &fileName, &isActive,
		&pubDash, &monDash, &qaDash,
		&customCSS, &tags, &domains, &note,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan publisher: %w", err)
	}

	pub.Filename = fileName.String
	pub.IsActive = isActive == 1
	pub.PublisherDashboard = pubDash.String
	pub.MonitorDashboard = monDash.String
	pub.QAStatusDashboard = qaDash.String
	pub.CustomCSS = customCSS.String
	pub.Notes = note.String

	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &pub.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
	}
	if domains.Valid && domains.String != "" {
		if err := json.Unmarshal([]byte(domains.String), &pub.AllowedDomains); err != nil {
			return nil, fmt.Errorf("failed to decode allowed domains: %w", err)
		}
	}
	return &pub, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func boolPtrToInt(b *bool) interface{} {
	if b == nil {
		return nil
	}
	return boolToInt(*b)
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func marshalList(list []string) interface{} {
	if list == nil {
		return nil
	}
	encoded, err := json.Marshal(list)
	if err != nil {
		return nil
	}
	return string(encoded)
}

func stringOr(patch *string, existing string) interface{} {
	if patch != nil {
		return nullIfEmpty(*patch)
	}
	return nullIfEmpty(existing)
}

func listOr(patch *[]string, existing []string) interface{} {
	if patch != nil {
		return marshalList(*patch)
	}
	return marshalList(existing)
}
