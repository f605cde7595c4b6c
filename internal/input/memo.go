package input

import "github.com/google/uuid"

// Memo caches stage results for the lifetime of a single call chain, so a
// handler that needs several upstream stages computes each one at most once.
// It is owned by exactly one in-flight call and discarded when the call
// completes; it is not safe for concurrent use and does not need to be.
type Memo struct {
	callID  string
	results map[string]any
}

// NewMemo creates an empty memo with a fresh call ID for log correlation.
func NewMemo() *Memo {
	return &Memo{
		callID:  uuid.NewString(),
		results: make(map[string]any),
	}
}

// CallID identifies the call chain this memo belongs to.
func (m *Memo) CallID() string { return m.callID }

// Get returns the memoized result for a stage, if any.
func (m *Memo) Get(stage string) (any, bool) {
	v, ok := m.results[stage]
	return v, ok
}

// Set stores a stage result, overwriting any previous value.
func (m *Memo) Set(stage string, result any) {
	m.results[stage] = result
}
