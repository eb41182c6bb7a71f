package harness

import (
	"fmt"
)

// Run executes a scenario and returns the result.
//
// The returned error is reserved for scenarios that cannot run at all (an
// unreadable input_file). Reindex failures are part of the outcome and are
// judged against Expect.
func Run(scenario *Scenario) (*Result, error) {
	input, err := scenario.LoadInput()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	result.Outcome, result.Err = execute(scenario, input)

	for _, msg := range evaluateExpect(scenario.Expect, result.Outcome, result.Err) {
		result.AddError(msg)
	}

	if result.Err == nil {
		for _, msg := range checkProperties(scenario, input, result.Outcome) {
			result.AddError(msg)
		}
	}

	return result, nil
}
