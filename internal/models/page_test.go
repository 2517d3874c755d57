package models

import "testing"

func TestValidPageNumber(t *testing.T) {
	tests := []struct {
		number   string
		expected bool
	}{
		{"000001", true},
		{"001901", true},
		{"1901", false},
		{"0019010", false},
		{"00190a", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			if got := ValidPageNumber(tt.number); got != tt.expected {
				t.Errorf("ValidPageNumber(%q) = %v, want %v", tt.number, got, tt.expected)
			}
		})
	}
}

func TestFormatPageNumber(t *testing.T) {
	if got := FormatPageNumber(1901); got != "001901" {
		t.Errorf("FormatPageNumber(1901) = %s, want 001901", got)
	}
}

func TestRecordFields(t *testing.T) {
	rec := Record{
		Caption: "Caption",
		Hash:    "hash",
		Created: "1251006390",
		Links:   "00001.gif",
		Body:    "Body",
		Next:    "000002",
	}

	if got := RecordFromFields(rec.Fields()); got != rec {
		t.Errorf("RecordFromFields(Fields()) = %+v, want %+v", got, rec)
	}
	if rec.Fields()[3] != "00001.gif" {
		t.Errorf("Expected links at index 3, got %q", rec.Fields()[3])
	}
}
