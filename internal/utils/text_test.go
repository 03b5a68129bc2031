package utils

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"584141234567@s.whatsapp.net", "04141234567"},
		{"whatsapp:+584141234567", "04141234567"},
		{"+58 414 123-4567", "04141234567"},
		{"04141234567", "04141234567"},
		{"(0414) 123 4567", "04141234567"},
		{"5812345", "5812345"}, // too short for the 58 prefix rule
	}
	for _, tt := range tests {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Azúcar Refinada", "azucar refinada"},
		{"  CAFÉ, molido!!  ", "cafe molido"},
		{"harina p.a.n.", "harina p a n"},
		{"ñame", "name"},
	}
	for _, tt := range tests {
		if got := NormalizeText(tt.in); got != tt.want {
			t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFoldAccents(t *testing.T) {
	if got := FoldAccents("áéíóúüñÁÉÍÓÚÜÑ"); got != "aeiouunAEIOUUN" {
		t.Errorf("FoldAccents = %q", got)
	}
}

func TestDigits(t *testing.T) {
	if got := Digits("V-12.345.678"); got != "12345678" {
		t.Errorf("Digits = %q", got)
	}
}

func TestAlphaNumeric(t *testing.T) {
	if got := AlphaNumeric("v-12345678 "); got != "v12345678" {
		t.Errorf("AlphaNumeric = %q", got)
	}
}
