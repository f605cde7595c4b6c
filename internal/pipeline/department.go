package pipeline

import "strings"

// departments maps lowercased free-text department labels to display labels.
var departments = map[string]string{
	"dentist":       "Dentistry",
	"dental":        "Dentistry",
	"dentistry":     "Dentistry",
	"cardiologist":  "Cardiology",
	"cardiology":    "Cardiology",
	"cardio":        "Cardiology",
	"general":       "General",
	"gp":            "General",
	"physician":     "General",
	"dermatologist": "Dermatology",
	"dermatology":   "Dermatology",
	"skin":          "Dermatology",
	"orthopedic":    "Orthopedics",
	"orthopedics":   "Orthopedics",
	"ortho":         "Orthopedics",
	"pediatrician":  "Pediatrics",
	"pediatrics":    "Pediatrics",
	"neurologist":   "Neurology",
	"neurology":     "Neurology",
	"ent":           "ENT",
	"eye":           "Ophthalmology",
	"ophthalmology": "Ophthalmology",
}

// CanonicalDepartment normalizes a free-text department label to its display
// label. Unmapped values pass through with their original casing. Pure
// lookup, no failure mode.
func CanonicalDepartment(department string) string {
	key := strings.ToLower(strings.TrimSpace(department))
	if label, ok := departments[key]; ok {
		return label
	}
	return department
}
