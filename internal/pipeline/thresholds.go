package pipeline

// ClarifyReason is the reason attached to every guardrail rejection.
const ClarifyReason = "ambiguous date/time or department"

// Thresholds centralizes every guardrail floor the pipeline applies. A
// confidence exactly at a floor passes; strictly below fails. The same
// scheme governs all call paths, so 0.60 always passes the post-check and
// 0.5999 always fails it.
type Thresholds struct {
	// EntityFloor is the stage 1 confidence below which entity extraction
	// skips the external call and returns empty entities.
	EntityFloor float64 `json:"entity_floor"`

	// NormalizePreFloor is the stage 2 confidence below which normalization
	// refuses without calling the external service.
	NormalizePreFloor float64 `json:"normalize_pre_floor"`

	// NormalizePostFloor is the combined stage 3 confidence below which a
	// computed date/time is discarded rather than surfaced.
	NormalizePostFloor float64 `json:"normalize_post_floor"`
}

// DefaultThresholds returns the standard guardrail floors.
func DefaultThresholds() Thresholds {
	return Thresholds{
		EntityFloor:        0.5,
		NormalizePreFloor:  0.5,
		NormalizePostFloor: 0.6,
	}
}

// below reports whether confidence fails the floor. Boundary values pass.
func below(confidence, floor float64) bool {
	return confidence < floor
}
