package artifacts

import (
	"time"

	"github.com/segmentio/encoding/json"
)

// OutcomeStatus is the terminal state of one generation attempt.
type OutcomeStatus string

const (
	OutcomeSucceeded      OutcomeStatus = "succeeded"
	OutcomeRejected       OutcomeStatus = "rejected"
	OutcomeQuotaExhausted OutcomeStatus = "quota_exhausted"
	OutcomeError          OutcomeStatus = "error"
)

// ReasonSharedQuota is the rejection reason of kinds skipped because a
// sibling in their quota group already hit the daily limit.
const ReasonSharedQuota = "shared quota exhausted"

// Outcome is the result of one kind within a scheduler run.
type Outcome struct {
	Kind   Kind          `json:"kind"`
	Status OutcomeStatus `json:"status"`
	// Reason carries the rejection message or the error text.
	Reason string `json:"reason,omitempty"`
	// Group is the exhausted quota group for QuotaExhausted outcomes.
	Group string `json:"group,omitempty"`
	// Skipped is set when the kind was never sent to the service.
	Skipped    bool      `json:"skipped,omitempty"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	Err        error     `json:"-"`
}

func succeeded(k Kind) Outcome { return Outcome{Kind: k, Status: OutcomeSucceeded} }

func rejected(k Kind, reason string) Outcome {
	return Outcome{Kind: k, Status: OutcomeRejected, Reason: reason}
}

func quotaExhausted(k Kind, group string) Outcome {
	return Outcome{Kind: k, Status: OutcomeQuotaExhausted, Group: group, Reason: "daily limit reached"}
}

func failed(k Kind, err error) Outcome {
	return Outcome{Kind: k, Status: OutcomeError, Reason: err.Error(), Err: err}
}

// Duration is how long the attempt took, zero for skipped kinds.
func (o Outcome) Duration() time.Duration {
	if o.StartedAt.IsZero() || o.FinishedAt.IsZero() {
		return 0
	}
	return o.FinishedAt.Sub(o.StartedAt)
}

// MarshalJSON leaves out the timestamps of kinds that were never sent.
func (o Outcome) MarshalJSON() ([]byte, error) {
	type alias Outcome
	out := struct {
		alias
		StartedAt  *time.Time `json:"started_at,omitempty"`
		FinishedAt *time.Time `json:"finished_at,omitempty"`
	}{alias: alias(o)}
	if !o.StartedAt.IsZero() {
		out.StartedAt = &o.StartedAt
	}
	if !o.FinishedAt.IsZero() {
		out.FinishedAt = &o.FinishedAt
	}
	return json.Marshal(out)
}

// RunResult summarises one scheduler run. Outcomes follow canonical order.
type RunResult struct {
	NotebookID string    `json:"notebook_id"`
	Requested  int       `json:"requested"`
	Dispatched int       `json:"dispatched"`
	Succeeded  int       `json:"succeeded"`
	Outcomes   []Outcome `json:"outcomes"`
	Unknown    []Kind    `json:"unknown,omitempty"`
}

// Outcome returns the outcome recorded for k.
func (r RunResult) Outcome(k Kind) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Kind == k {
			return o, true
		}
	}
	return Outcome{}, false
}

// MarshalJSON keeps outcomes ordered while exposing a by-kind view.
func (r RunResult) MarshalJSON() ([]byte, error) {
	type alias RunResult
	byKind := make(map[Kind]OutcomeStatus, len(r.Outcomes))
	for _, o := range r.Outcomes {
		byKind[o.Kind] = o.Status
	}
	return json.Marshal(struct {
		alias
		ByKind map[Kind]OutcomeStatus `json:"by_kind"`
	}{alias(r), byKind})
}
