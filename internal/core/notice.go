package core

// NoticeKind classifies informational notices.
type NoticeKind string

const (
	NoticeMissingDimension NoticeKind = "missing_dimension"
	NoticeMissingDate      NoticeKind = "missing_date_column"
	NoticeCoercedValues    NoticeKind = "coerced_values"
	NoticeDuplicateColumn  NoticeKind = "duplicate_column"
	NoticeDuplicateRows    NoticeKind = "duplicate_rows"
)

// Notice describes a recovered, non-fatal condition for the presentation layer.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Field   string     `json:"field,omitempty"`
	Message string     `json:"message"`
}
