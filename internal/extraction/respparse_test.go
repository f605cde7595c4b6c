package extraction

import (
	"testing"
)

func TestParseConfidenceMarker(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   float64
		wantOK bool
	}{
		{
			name:   "trailing marker",
			text:   `Book dentist next Friday at 3pm {"confidence": 0.95}`,
			want:   0.95,
			wantOK: true,
		},
		{
			name:   "integer confidence",
			text:   `some text {"confidence": 1}`,
			want:   1.0,
			wantOK: true,
		},
		{
			name:   "clamped above one",
			text:   `text {"confidence": 1.7}`,
			want:   1.0,
			wantOK: true,
		},
		{
			name:   "clamped below zero",
			text:   `text {"confidence": -0.2}`,
			want:   0.0,
			wantOK: true,
		},
		{
			name:   "spacing variations",
			text:   `{"confidence"  :  0.42}`,
			want:   0.42,
			wantOK: true,
		},
		{
			name:   "no marker",
			text:   `just some raw text`,
			wantOK: false,
		},
		{
			name:   "malformed marker is rejected",
			text:   `{"confidence": high}`,
			wantOK: false,
		},
		{
			name:   "empty input",
			text:   ``,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseConfidenceMarker(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ParseConfidenceMarker() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseConfidenceMarker() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{
			name:   "bare object",
			text:   `{"department": "dentist"}`,
			want:   `{"department": "dentist"}`,
			wantOK: true,
		},
		{
			name:   "leading prose",
			text:   `Here is the result: {"date_phrase": "next Friday", "time_phrase": "3pm"} done`,
			want:   `{"date_phrase": "next Friday", "time_phrase": "3pm"}`,
			wantOK: true,
		},
		{
			name:   "nested objects",
			text:   `{"a": {"b": 1}, "c": 2} trailing`,
			want:   `{"a": {"b": 1}, "c": 2}`,
			wantOK: true,
		},
		{
			name:   "braces inside strings",
			text:   `{"notes": "bring {urgent} reports"}`,
			want:   `{"notes": "bring {urgent} reports"}`,
			wantOK: true,
		},
		{
			name:   "escaped quotes inside strings",
			text:   `{"notes": "say \"hi\" {x}"}`,
			want:   `{"notes": "say \"hi\" {x}"}`,
			wantOK: true,
		},
		{
			name:   "markdown fenced",
			text:   "```json\n{\"department\": \"general\"}\n```",
			want:   `{"department": "general"}`,
			wantOK: true,
		},
		{
			name:   "no object",
			text:   `plain text only`,
			wantOK: false,
		},
		{
			name:   "unbalanced object",
			text:   `{"department": "dentist"`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstJSONObject(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("FirstJSONObject() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("FirstJSONObject() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClamp01(t *testing.T) {
	if got := Clamp01(0.5); got != 0.5 {
		t.Errorf("Clamp01(0.5) = %v", got)
	}
	if got := Clamp01(-1); got != 0 {
		t.Errorf("Clamp01(-1) = %v", got)
	}
	if got := Clamp01(2); got != 1 {
		t.Errorf("Clamp01(2) = %v", got)
	}
}
