package textutil

import (
	"testing"
	"time"
)

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "00:00"},
		{5, "00:05"},
		{300, "05:00"},
		{1199, "19:59"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
		{-4, "00:00"},
	}
	for _, tt := range tests {
		if got := FormatCountdown(tt.secs); got != tt.want {
			t.Errorf("FormatCountdown(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestFormatPlace(t *testing.T) {
	tests := []struct {
		place int
		want  string
	}{
		{1, "1st"},
		{2, "2nd"},
		{3, "3rd"},
		{4, "4th"},
		{11, "11th"},
		{12, "12th"},
		{13, "13th"},
		{21, "21st"},
		{102, "102nd"},
		{111, "111th"},
	}
	for _, tt := range tests {
		if got := FormatPlace(tt.place); got != tt.want {
			t.Errorf("FormatPlace(%d) = %q, want %q", tt.place, got, tt.want)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"05:00", 5 * time.Minute, false},
		{"1:25:30", time.Hour + 25*time.Minute + 30*time.Second, false},
		{"25", 0, true},
		{"a:b", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-45000, "-45,000"},
	}
	for _, tt := range tests {
		if got := FormatAmount(tt.n); got != tt.want {
			t.Errorf("FormatAmount(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
