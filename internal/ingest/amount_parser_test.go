package ingest

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"€ 1.500.000,50", 1500000.50},
		{"1.000.000", 1000000},
		{"€500", 500},
		{"dotazione di 2.500.000 euro", 2500000},
		{"50.000,00 €", 50000},
		{"1234,5", 1234.5},
	}

	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		if !ok {
			t.Errorf("ParseAmount(%q): no amount found", tt.in)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAmount(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseAmountRejects(t *testing.T) {
	for _, in := range []string{"", "da definire", "€"} {
		if got, ok := ParseAmount(in); ok {
			t.Errorf("ParseAmount(%q) = %v, expected no match", in, got)
		}
	}
}

func TestParsePercentage(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"50%", 50},
		{"fino al 70,5%", 70.5},
		{"copertura del 100 %", 100},
		{"40.5%", 40.5},
	}

	for _, tt := range tests {
		got, ok := ParsePercentage(tt.in)
		if !ok {
			t.Errorf("ParsePercentage(%q): no percentage found", tt.in)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePercentage(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParsePercentageRequiresSign(t *testing.T) {
	for _, in := range []string{"", "fondo perduto", "70 percento"} {
		if got, ok := ParsePercentage(in); ok {
			t.Errorf("ParsePercentage(%q) = %v, expected no match", in, got)
		}
	}
}
