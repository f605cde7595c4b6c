package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalDepartment(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"exact synonym", "dentist", "Dentistry"},
		{"uppercase input", "DENTIST", "Dentistry"},
		{"mixed case", "Cardiologist", "Cardiology"},
		{"already canonical", "dentistry", "Dentistry"},
		{"gp shorthand", "gp", "General"},
		{"surrounding whitespace", "  dental  ", "Dentistry"},
		{"unmapped passes through", "Sports Medicine", "Sports Medicine"},
		{"empty stays empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalDepartment(tt.in))
		})
	}
}
