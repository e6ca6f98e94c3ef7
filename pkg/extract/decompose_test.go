package extract

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExtractActor(t *testing.T) {
	tests := []struct {
		sentence string
		want     string
	}{
		{"The operator shall check the rice moisture content every 4 hours.", "operator"},
		{"The milling supervisor shall review the shift log.", "milling supervisor"},
		{"QA inspector must verify the seal integrity per batch.", "qa inspector"},
		{"Records are required to be maintained for two years.", "staff"},
		{"Cleaning is mandatory before startup.", "staff"},
	}
	for _, tt := range tests {
		if got := extractActor(tt.sentence); got != tt.want {
			t.Errorf("extractActor(%q) = %q, want %q", tt.sentence, got, tt.want)
		}
	}
}

func TestExtractAction(t *testing.T) {
	tests := []struct {
		sentence string
		want     string
	}{
		{"The operator shall check the rice moisture content.", "check"},
		{"The sieves must be cleaned after each batch.", "cleaned"},
		{"The QC inspector is required to sample every lot.", "sample"},
		{"The supervisor shall that the log is signed.", "perform"},
		{"No trigger words here at all.", "perform"},
	}
	for _, tt := range tests {
		if got := extractAction(tt.sentence); got != tt.want {
			t.Errorf("extractAction(%q) = %q, want %q", tt.sentence, got, tt.want)
		}
	}
}

func TestExtractObject(t *testing.T) {
	tests := []struct {
		sentence string
		want     string
	}{
		{"The operator shall check the rice moisture content every 4 hours using a meter.", "rice moisture content"},
		{"The packer must weigh each bag before sealing.", "each bag"},
		{"The miller shall record, without delay, any deviation.", "task requirements"},
	}
	for _, tt := range tests {
		if got := extractObject(tt.sentence); got != tt.want {
			t.Errorf("extractObject(%q) = %q, want %q", tt.sentence, got, tt.want)
		}
	}
}

func TestExtractFrequency(t *testing.T) {
	tests := []struct {
		sentence string
		want     string
	}{
		{"check the moisture every 4 hours", "Every 4 hours"},
		{"stir every 30 minutes", "Every 30 minutes"},
		{"inspect once per lot", "Once per lot"},
		{"verify the scale per batch", "Per batch"},
		{"clean the sieve before each run", "Before each run"},
		{"record readings at the start of shift", "At start of shift"},
		{"calibrate the meter daily", "Daily"},
		{"review records monthly", "Monthly"},
		{"monitor temperature continuously", "Continuous"},
		{"replace filters as needed", "As needed"},
		{"no timing here", ""},
	}
	for _, tt := range tests {
		if got := extractFrequency(tt.sentence); got != tt.want {
			t.Errorf("extractFrequency(%q) = %q, want %q", tt.sentence, got, tt.want)
		}
	}
}

func TestExtractCriticalLimit(t *testing.T) {
	tests := []struct {
		name     string
		sentence string
		want     string
	}{
		{"comparator percentage", "moisture shall stay ≤ 14%", "≤ 14%"},
		{"exceed percentage", "The moisture content must not exceed 14%.", "14% max"},
		{"maximum percentage", "broken grains maximum 5% per lot", "5% max"},
		{"temperature", "dryer outlet must remain < 45°C at all times", "< 45°C"},
		{"concentration", "aflatoxin level of 10 ppb triggers rejection", "10 ppb"},
		{"weight", "each bag shall weigh 25 kg", "25 kg"},
		{"bounded time", "corrective action must start within 2 hours", "within 2 hours"},
		{"none", "the operator shall clean the hopper", ""},
	}
	for _, tt := range tests {
		if got := extractCriticalLimit(tt.sentence); got != tt.want {
			t.Errorf("%s: extractCriticalLimit(%q) = %q, want %q", tt.name, tt.sentence, got, tt.want)
		}
	}
}

func TestExtractCriticalLimitFirstInReadingOrderWins(t *testing.T) {
	sentence := "dryer outlet must remain < 45°C and moisture must not exceed 14%"
	if got := extractCriticalLimit(sentence); got != "< 45°C" {
		t.Errorf("got %q, want the temperature limit that occurs first", got)
	}

	reversed := "moisture must stay ≤ 14% and dryer outlet below safe temperature"
	if got := extractCriticalLimit(reversed); got != "≤ 14%" {
		t.Errorf("got %q, want the percentage limit that occurs first", got)
	}
}

func TestIsConstraint(t *testing.T) {
	tests := []struct {
		sentence string
		want     bool
	}{
		{"The moisture content must not exceed 14%.", true},
		{"The dryer shall never run unattended.", true},
		{"The operator shall check the moisture content.", false},
	}
	for _, tt := range tests {
		if got := isConstraint(tt.sentence); got != tt.want {
			t.Errorf("isConstraint(%q) = %t, want %t", tt.sentence, got, tt.want)
		}
	}
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	degrees := strings.Repeat("°", maxObjectLen+10)

	got := truncate(degrees, maxObjectLen)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate() produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != maxObjectLen {
		t.Errorf("truncate() kept %d runes, want %d", n, maxObjectLen)
	}

	if got := truncate("short", maxObjectLen); got != "short" {
		t.Errorf("truncate() altered a short string: %q", got)
	}
}
