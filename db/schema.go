package db

// Schemas returns the DDL statements for all tables and indexes, applied
// in order on startup. Audit rows hang off publishers via cascading
// foreign keys, so deleting a publisher removes its pages and its trail.
func Schemas() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS publishers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			publisher_id TEXT UNIQUE NOT NULL,
			alias_name TEXT NOT NULL,
			file_name TEXT,
			is_active INTEGER DEFAULT 1,
			publisher_dashboard TEXT,
			monitor_dashboard TEXT,
			qa_status_dashboard TEXT,
			custom_css TEXT,
			tags TEXT,
			allowed_domains TEXT,
			notes TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS pages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			publisher_id TEXT NOT NULL,
			page_type TEXT NOT NULL,
			selector TEXT NOT NULL,
			position TEXT NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (publisher_id) REFERENCES publishers(publisher_id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS audit_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			publisher_id TEXT NOT NULL,
			action TEXT NOT NULL,
			field_name TEXT,
			old_value TEXT,
			new_value TEXT,
			changed_by TEXT NOT NULL,
			changed_at TEXT DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (publisher_id) REFERENCES publishers(publisher_id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_publishers_publisher_id ON publishers(publisher_id)`,
		`CREATE INDEX IF NOT EXISTS idx_publishers_alias_name ON publishers(alias_name)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_publisher_id ON pages(publisher_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_publisher_id ON audit_logs(publisher_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_changed_at ON audit_logs(changed_at)`,
	}
}
