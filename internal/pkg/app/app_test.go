package app

import "testing"

func TestInQuietHours(t *testing.T) {
	tests := []struct {
		name string
		hour int
		from int
		to   int
		want bool
	}{
		{"inside window", 3, 1, 7, true},
		{"start of window", 1, 1, 7, true},
		{"end of window excluded", 7, 1, 7, false},
		{"before window", 0, 1, 7, false},
		{"after window", 12, 1, 7, false},
		{"disabled window", 3, 0, 0, false},
		{"wraps midnight inside late", 23, 22, 6, true},
		{"wraps midnight inside early", 2, 22, 6, true},
		{"wraps midnight outside", 12, 22, 6, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inQuietHours(tt.hour, tt.from, tt.to); got != tt.want {
				t.Errorf("inQuietHours(%d, %d, %d) = %v, want %v", tt.hour, tt.from, tt.to, got, tt.want)
			}
		})
	}
}
