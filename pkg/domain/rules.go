package domain

// Severity captures how serious an integrity finding is.
type Severity string

// Integrity severities.
const (
	// SeverityBlock marks a reference that cannot be resolved or is contradictory.
	SeverityBlock Severity = "block"
	// SeverityWarn marks an inconsistency queries tolerate.
	SeverityWarn Severity = "warn"
)

// Violation describes one integrity finding on a loaded tree.
type Violation struct {
	Rule     string     `json:"rule"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	Entity   EntityType `json:"entity"`
	EntityID string     `json:"entity_id"`
}

// HasBlocking reports whether any violation carries SeverityBlock.
func HasBlocking(violations []Violation) bool {
	for _, v := range violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}
