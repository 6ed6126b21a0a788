package tui

import "testing"

func TestDetectMode_EnvironmentOverrides(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"explicit non-interactive flag", "CSV2SQL_NON_INTERACTIVE", "1"},
		{"CI convention", "CI", "true"},
		{"NO_COLOR convention", "NO_COLOR", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			if got := DetectMode(); got != ModeNonInteractive {
				t.Errorf("DetectMode() = %v, want ModeNonInteractive", got)
			}
			if IsInteractive() {
				t.Error("IsInteractive() = true, want false")
			}
		})
	}
}

func TestDetectMode_PipedStdioIsNonInteractive(t *testing.T) {
	// Under `go test` stdin/stdout are not terminals, so with no environment
	// overrides the terminal check alone must force non-interactive mode.
	t.Setenv("CSV2SQL_NON_INTERACTIVE", "")
	t.Setenv("CI", "")
	t.Setenv("NO_COLOR", "")

	if got := DetectMode(); got != ModeNonInteractive {
		t.Errorf("DetectMode() = %v, want ModeNonInteractive", got)
	}
}
