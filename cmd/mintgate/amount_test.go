package main

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in       string
		decimals uint8
		want     uint64
		wantErr  bool
	}{
		{"100", 0, 100, false},
		{"1.5", 6, 1_500_000, false},
		{"0.000001", 6, 1, false},
		{"2.", 2, 200, false},
		{"18446744073709551615", 0, 18446744073709551615, false},
		{"1.5", 0, 0, true},
		{"0.0000001", 6, 0, true},
		{"", 6, 0, true},
		{"-1", 6, 0, true},
		{"abc", 6, 0, true},
		{"18446744073709551616", 0, 0, true},
		{"18446744073709551615", 1, 0, true},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in, tt.decimals)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAmount(%q, %d) error = %v, wantErr %v", tt.in, tt.decimals, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseAmount(%q, %d) = %d, want %d", tt.in, tt.decimals, got, tt.want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		units    uint64
		decimals uint8
		want     string
	}{
		{0, 0, "0"},
		{42, 0, "42"},
		{1_500_000, 6, "1.500000"},
		{1, 6, "0.000001"},
	}
	for _, tt := range tests {
		if got := formatAmount(tt.units, tt.decimals); got != tt.want {
			t.Errorf("formatAmount(%d, %d) = %q, want %q", tt.units, tt.decimals, got, tt.want)
		}
	}
}
