package harness

import (
	"github.com/roach88/reindex/internal/reindex"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and property held.
	Pass bool `json:"pass"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Outcome is the reindex result, nil if reindexing failed.
	Outcome *reindex.Result `json:"-"`

	// Err is the reindex error, nil if reindexing succeeded.
	Err error `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
