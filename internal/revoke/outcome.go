package revoke

import (
	"encoding/json"
	"fmt"
	"time"
)

// RemovalRequest is one input row. Fields are already trimmed.
type RemovalRequest struct {
	// Line is the 1-based line in the input file, 0 when unknown.
	Line     int
	AppID    string
	SecretID string
}

// OutcomeKind classifies what happened to a row.
type OutcomeKind int

const (
	InvalidIdentifier OutcomeKind = iota
	ApplicationNotFound
	SecretNotFound
	RemovalSucceeded
	RemovalFailed
	LookupFailed
	RemovalSkipped
	NotAttempted
)

// OutcomeKinds lists every kind in reporting order.
var OutcomeKinds = []OutcomeKind{
	RemovalSucceeded,
	RemovalSkipped,
	SecretNotFound,
	ApplicationNotFound,
	InvalidIdentifier,
	LookupFailed,
	RemovalFailed,
	NotAttempted,
}

var outcomeNames = map[OutcomeKind]string{
	InvalidIdentifier:   "InvalidIdentifier",
	ApplicationNotFound: "ApplicationNotFound",
	SecretNotFound:      "SecretNotFound",
	RemovalSucceeded:    "RemovalSucceeded",
	RemovalFailed:       "RemovalFailed",
	LookupFailed:        "LookupFailed",
	RemovalSkipped:      "RemovalSkipped",
	NotAttempted:        "NotAttempted",
}

func (k OutcomeKind) String() string {
	if name, ok := outcomeNames[k]; ok {
		return name
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// MarshalText renders the kind by name in JSON output and map keys.
func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Actionable reports whether the outcome needs operator follow-up.
// Resolution misses are usually already-cleaned rows and are not.
func (k OutcomeKind) Actionable() bool {
	switch k {
	case RemovalFailed, LookupFailed, InvalidIdentifier, NotAttempted:
		return true
	}
	return false
}

// RowOutcome is the result of processing one RemovalRequest.
type RowOutcome struct {
	Request RemovalRequest `json:"request"`
	Kind    OutcomeKind    `json:"outcome"`
	// Reason carries the underlying error text for failures.
	Reason string `json:"reason,omitempty"`

	SecretID         SecretID `json:"secret_id,omitempty"`
	AppObjectID      string   `json:"app_object_id,omitempty"`
	AppDisplayName   string   `json:"app_display_name,omitempty"`
	SecretName       string   `json:"secret_name,omitempty"`
	AmbiguousMatches int      `json:"ambiguous_matches,omitempty"`
}

// BatchResult is the ordered set of row outcomes for a run.
type BatchResult struct {
	Outcomes    []RowOutcome        `json:"outcomes"`
	Counts      map[OutcomeKind]int `json:"counts"`
	DryRun      bool                `json:"dry_run"`
	Interrupted bool                `json:"interrupted"`
	Duration    time.Duration       `json:"-"`
}

func newBatchResult(capacity int, dryRun bool) *BatchResult {
	return &BatchResult{
		Outcomes: make([]RowOutcome, 0, capacity),
		Counts:   make(map[OutcomeKind]int),
		DryRun:   dryRun,
	}
}

func (b *BatchResult) add(o RowOutcome) {
	b.Outcomes = append(b.Outcomes, o)
	b.Counts[o.Kind]++
}

// Count returns how many rows ended with kind.
func (b *BatchResult) Count(kind OutcomeKind) int {
	return b.Counts[kind]
}

// Total returns the number of rows in the batch.
func (b *BatchResult) Total() int {
	return len(b.Outcomes)
}

// HasActionable reports whether any row needs operator follow-up.
func (b *BatchResult) HasActionable() bool {
	for kind, n := range b.Counts {
		if n > 0 && kind.Actionable() {
			return true
		}
	}
	return false
}

// MarshalJSON adds the row total and duration in seconds.
func (b *BatchResult) MarshalJSON() ([]byte, error) {
	type plain BatchResult
	return json.Marshal(struct {
		*plain
		Total           int     `json:"total"`
		DurationSeconds float64 `json:"duration_seconds"`
	}{
		plain:           (*plain)(b),
		Total:           b.Total(),
		DurationSeconds: b.Duration.Seconds(),
	})
}
