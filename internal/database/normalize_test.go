package database

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Ana", "ana"},
		{"diacritics", "José María", "jose maria"},
		{"dashes", "jean-pierre", "jean pierre"},
		{"mixed", "Jiří-Novák", "jiri novak"},
		{"surrounding spaces", "  Ana  ", "ana"},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeName(tc.input); got != tc.expected {
				t.Errorf("NormalizeName(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestRemoveDiacritics(t *testing.T) {
	if got := RemoveDiacritics("Çelik Ångström"); got != "Celik Angstrom" {
		t.Errorf("RemoveDiacritics = %q; want %q", got, "Celik Angstrom")
	}
}
