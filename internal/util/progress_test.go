package util

import "testing"

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0s"},
		{12.7, "12s"},
		{59.9, "59s"},
		{60, "1m 0s"},
		{65, "1m 5s"},
		{3725, "62m 5s"},
		{-3, "0s"},
	}
	for _, tt := range tests {
		if got := FormatRemaining(tt.seconds); got != tt.want {
			t.Errorf("FormatRemaining(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestProgressPercentage(t *testing.T) {
	tests := []struct {
		current, total int
		want           int32
	}{
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 66},
		{3, 3, 100},
		{5, 3, 100},
		{1, 0, 0},
	}
	for _, tt := range tests {
		if got := ProgressPercentage(tt.current, tt.total); got != tt.want {
			t.Errorf("ProgressPercentage(%d, %d) = %d, want %d", tt.current, tt.total, got, tt.want)
		}
	}
}

func TestProgressLine(t *testing.T) {
	est := 65.0
	zero := 0.0
	tests := []struct {
		name      string
		remaining *float64
		want      string
	}{
		{"no estimate", nil, "Processing chunk 1/2..."},
		{"done", &zero, "Processing chunk 1/2..."},
		{"estimate", &est, "Processing chunk 1/2... (Est. 1m 5s remaining)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProgressLine("Processing chunk 1/2...", tt.remaining); got != tt.want {
				t.Errorf("ProgressLine() = %q, want %q", got, tt.want)
			}
		})
	}
}
