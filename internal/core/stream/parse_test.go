package stream

import "testing"

func TestParsePercentDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"45.2%", 45.2},
		{"1,234.5%", 1234.5},
		{"0.0%", 0},
		{"100%", 100},
		{"nope", -1},
	}
	for _, tt := range tests {
		if got := parsePercentDecimal(tt.in); got != tt.want {
			t.Errorf("parsePercentDecimal(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"4.12MiB", int64(4.12 * 1024 * 1024)},
		{"100.00MiB", 100 * 1024 * 1024},
		{"1KiB", 1024},
		{"2GiB", 2 * 1024 * 1024 * 1024},
		{"512B", 512},
		{"nope", -1},
	}
	for _, tt := range tests {
		if got := parseByteSize(tt.in); got != tt.want {
			t.Errorf("parseByteSize(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
