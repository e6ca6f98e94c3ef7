package document

import (
	"errors"
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in        string
		wantMajor int
		wantMinor int
		wantErr   bool
	}{
		{in: "v1.0", wantMajor: 1, wantMinor: 0},
		{in: "v0.1", wantMajor: 0, wantMinor: 1},
		{in: "v12.34", wantMajor: 12, wantMinor: 34},
		{in: "1.0", wantErr: true},
		{in: "v1", wantErr: true},
		{in: "v1.0.0", wantErr: true},
		{in: "", wantErr: true},
		{in: "va.b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseVersion(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseVersion(%q) expected error", tt.in)
				}
				if !errors.Is(err, ErrValidation) {
					t.Errorf("ParseVersion(%q) error = %v, want ErrValidation", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVersion(%q) error = %v", tt.in, err)
			}
			if v.Major != tt.wantMajor || v.Minor != tt.wantMinor {
				t.Errorf("ParseVersion(%q) = %v, want v%d.%d", tt.in, v, tt.wantMajor, tt.wantMinor)
			}
		})
	}
}

func TestVersionBumps(t *testing.T) {
	v, err := ParseVersion("v1.1")
	if err != nil {
		t.Fatalf("ParseVersion() error = %v", err)
	}

	if got := v.BumpMajor().String(); got != "v2.0" {
		t.Errorf("BumpMajor() = %s, want v2.0 (minor must reset)", got)
	}
	if got := v.BumpMinor().String(); got != "v1.2" {
		t.Errorf("BumpMinor() = %s, want v1.2", got)
	}
	if got := FirstControlled().String(); got != "v1.0" {
		t.Errorf("FirstControlled() = %s, want v1.0", got)
	}
}

func TestVersionNewer(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"v2.0", "v1.9", true},
		{"v1.1", "v1.0", true},
		{"v1.0", "v1.0", false},
		{"v1.0", "v2.0", false},
	}
	for _, tt := range tests {
		a, _ := ParseVersion(tt.a)
		b, _ := ParseVersion(tt.b)
		if got := a.Newer(b); got != tt.want {
			t.Errorf("%s.Newer(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
