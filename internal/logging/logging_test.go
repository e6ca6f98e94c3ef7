package logging

import "testing"

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", *DefaultConfig(), false},
		{"console debug", Config{Level: "debug", Format: "console"}, false},
		{"bad level", Config{Level: "verbose", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "logfmt"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew(t *testing.T) {
	logger, err := New(nil)
	if err != nil {
		t.Fatalf("New(nil) error = %v", err)
	}
	if logger == nil {
		t.Fatal("New(nil) returned nil logger")
	}

	if _, err := New(&Config{Level: "trace", Format: "json"}); err == nil {
		t.Error("New() with invalid level should fail")
	}
}

func TestSyncIgnoresTerminalErrors(t *testing.T) {
	logger, err := New(&Config{Level: "info", Format: "console"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := Sync(logger); err != nil {
		t.Errorf("Sync() error = %v", err)
	}
	if err := Sync(nil); err != nil {
		t.Errorf("Sync(nil) error = %v", err)
	}
}
