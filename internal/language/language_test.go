package language

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ENG", "eng"},
		{" fre ", "fre"},
		{"", Und},
		{"  ", Und},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		code, want string
	}{
		{"eng", "English"},
		{"jpn", "Japanese"},
		// Bibliographic variants common in Matroska files.
		{"fre", "French"},
		{"ger", "German"},
		{"chi", "Chinese"},
		{"und", "Undetermined"},
		{"", "Undetermined"},
		{"zxzx", "ZXZX"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.code); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestDisplayList(t *testing.T) {
	if got := DisplayList([]string{"eng", "jpn"}); got != "English, Japanese" {
		t.Errorf("DisplayList = %q", got)
	}
	if got := DisplayList(nil); got != "" {
		t.Errorf("DisplayList(nil) = %q", got)
	}
}
