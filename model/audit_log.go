package model

// AuditAction is the kind of change an audit entry records
type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	// AuditActionDelete is reserved; deletions are not currently audited
	// because the publisher cascade removes the trail anyway.
	AuditActionDelete AuditAction = "DELETE"
)

// AuditLog is one immutable record of a field-level change or a creation
// event. FieldName, OldValue and NewValue are nil for CREATE entries
// except NewValue, which carries the full serialized publisher.
type AuditLog struct {
	ID          int64       `json:"id"`
	PublisherID string      `json:"publisherId"`
	Action      AuditAction `json:"action"`
	FieldName   *string     `json:"fieldName"`
	OldValue    *string     `json:"oldValue"`
	NewValue    *string     `json:"newValue"`
	ChangedBy   string      `json:"changedBy"`
	ChangedAt   string      `json:"changedAt"`
}

// AuditLogInput is an audit entry before insertion; the store assigns the
// id and timestamp.
type AuditLogInput struct {
	PublisherID string
	Action      AuditAction
	FieldName   *string
	OldValue    *string
	NewValue    *string
	ChangedBy   string
}

// AuditLogList is a page of audit entries with its pagination envelope
type AuditLogList struct {
	Data       []AuditLog `json:"data"`
	Pagination Pagination `json:"pagination"`
}
