package reconcile

import "time"

// Outcome is the terminal state of a single reconcile call.
type Outcome string

const (
	// OutcomeUpdated means the netbox row was rewritten and the unit committed.
	OutcomeUpdated Outcome = "updated"
	// OutcomeUnchanged means the device update committed and no netbox write was needed.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeRolledBack means a persistence step failed and the unit was rolled back.
	OutcomeRolledBack Outcome = "rolled_back"
	// OutcomeSkipped means the observation was never finalized upstream.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means the record could not be reconciled and nothing was written.
	OutcomeFailed Outcome = "failed"
)

// Options controls per-record reconcile behavior.
type Options struct {
	// DryRun evaluates every step but rolls the unit back instead of committing.
	DryRun bool

	// RefreshSnapshot updates the cached prior record after a successful commit,
	// so repeated observations within one process compare against fresh state.
	RefreshSnapshot bool
}

// Result represents the reconciliation output for a single netbox record.
type Result struct {
	// NetboxID is the target netbox identifier.
	NetboxID int `json:"netbox_id"`

	// Outcome is the terminal state reached.
	Outcome Outcome `json:"outcome"`

	// DeviceID is the resolved device identifier, when one was resolved.
	DeviceID int `json:"device_id,omitempty"`

	// DryRun is set when the unit was rolled back on purpose.
	DryRun bool `json:"dry_run,omitempty"`

	// Error describes the failure for failed and rolled back outcomes.
	Error string `json:"error,omitempty"`
}

// Summary provides aggregate counts over a set of results.
type Summary struct {
	Total      int `json:"total"`
	Updated    int `json:"updated"`
	Unchanged  int `json:"unchanged"`
	RolledBack int `json:"rolled_back"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Add counts a result.
func (s *Summary) Add(r Result) {
	s.Total++
	switch r.Outcome {
	case OutcomeUpdated:
		s.Updated++
	case OutcomeUnchanged:
		s.Unchanged++
	case OutcomeRolledBack:
		s.RolledBack++
	case OutcomeSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

// Errors returns the number of results that did not reconcile.
func (s Summary) Errors() int {
	return s.RolledBack + s.Failed
}

// Report is the outcome of one run over a set of observations.
type Report struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	DryRun    bool          `json:"dry_run"`
	Summary   Summary       `json:"summary"`
	Results   []Result      `json:"results"`
}
