package constants

// DocumentStatus is the canonical status for rows in documents.
type DocumentStatus string

// Stable values (store these exact strings in DB).
const (
	StatusPending    DocumentStatus = "pending"    // uploaded, not yet picked up
	StatusProcessing DocumentStatus = "processing" // pipeline running
	StatusCompleted  DocumentStatus = "completed"  // terminal, analysis written
	StatusFailed     DocumentStatus = "failed"     // terminal, reason recorded
)

// IsTerminal reports whether no further transition is expected.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParseStatus maps a stored string back onto a DocumentStatus.
func ParseStatus(s string) (DocumentStatus, bool) {
	switch DocumentStatus(s) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return DocumentStatus(s), true
	}
	return "", false
}
