package port

import "context"

// AuditEntry represents a single auditable estimation event.
type AuditEntry struct {
	Tool        string
	Operator    string
	Collections []string
	SQL         string
	OutputDocs  int64
	DurationMS  int64
	Err         error
}

// Auditor records estimation audit events.
type Auditor interface {
	Record(ctx context.Context, entry AuditEntry)
	Close() error
}

// NoopAuditor discards all audit events.
type NoopAuditor struct{}

func (NoopAuditor) Record(context.Context, AuditEntry) {}
func (NoopAuditor) Close() error                       { return nil }
