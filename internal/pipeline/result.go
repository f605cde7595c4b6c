package pipeline

// Stage identifiers. Used as both memo keys and cross-request cache keys, so
// they must stay stable across releases while cached entries are live.
const (
	StageText      = "text_extraction"
	StageEntities  = "entity_extraction"
	StageNormalize = "normalization"
)

// Text is the stage 1 result: the raw text recovered from the payload.
type Text struct {
	RawText    string  `json:"raw_text"`
	Confidence float64 `json:"confidence"`
}

// Entities is the stage 2 result: the appointment phrases found in the text.
// All fields default to the empty string.
type Entities struct {
	Department string  `json:"department"`
	DatePhrase string  `json:"date_phrase"`
	TimePhrase string  `json:"time_phrase"`
	Notes      string  `json:"notes"`
	Confidence float64 `json:"confidence"`
}

// Empty reports whether no entity field carries a value.
func (e Entities) Empty() bool {
	return e.Department == "" && e.DatePhrase == "" && e.TimePhrase == "" && e.Notes == ""
}

// Normalization is the stage 3 outcome. Exactly one of Resolved or
// Clarification implements it; callers switch on the concrete type instead
// of inspecting status strings.
type Normalization interface {
	isNormalization()
}

// Resolved carries an absolute date and time in the configured timezone.
type Resolved struct {
	Date       string  `json:"date"` // ISO date (YYYY-MM-DD), "" when unresolvable
	Time       string  `json:"time"` // 24-hour HH:MM, "" when unresolvable
	Timezone   string  `json:"timezone"`
	Confidence float64 `json:"confidence"`
}

func (Resolved) isNormalization() {}

// Clarification is the terminal "refuse to guess" outcome. It is not an
// error: the pipeline produced it deliberately because confidence or
// completeness fell below a guardrail floor.
type Clarification struct {
	Reason string `json:"reason"`
}

func (Clarification) isNormalization() {}
func (Clarification) isResult()        {}

// Result is the final assembly outcome: a booked Appointment or the
// Clarification surfaced unchanged from an upstream stage.
type Result interface {
	isResult()
}

// Appointment is the terminal appointment record.
type Appointment struct {
	Department string `json:"department"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Timezone   string `json:"timezone"`
}

func (Appointment) isResult() {}
