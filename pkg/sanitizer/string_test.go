package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trim spaces", "  Soses Club  ", "Soses Club"},
		{"multiple spaces between words", "Pista    Central", "Pista Central"},
		{"tabs and newlines", "Pista\t\nCentral", "Pista Central"},
		{"empty string", "", ""},
		{"only whitespace", "   \t\n  ", ""},
		{"preserve special characters", " Pádel & Tenis ", "Pádel & Tenis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := TrimAndNormalize(TrimAndNormalize(tt.input)); again != tt.want {
				t.Errorf("TrimAndNormalize is not idempotent for %q", tt.input)
			}
		})
	}
}

func TestNormalizeTimeOfDay(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"9:00", "09:00"},
		{" 17:30 ", "17:30"},
		{"09:00", "09:00"},
		{"9", "9"},
		{"x:00", "x:00"},
	}

	for _, tt := range tests {
		if got := NormalizeTimeOfDay(tt.input); got != tt.want {
			t.Errorf("NormalizeTimeOfDay(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeTimezone(t *testing.T) {
	tests := []struct {
		input, fallback, want string
	}{
		{"", "Europe/Madrid", "Europe/Madrid"},
		{"  ", "Europe/Madrid", "Europe/Madrid"},
		{"utc", "Europe/Madrid", "UTC"},
		{" America/New_York ", "UTC", "America/New_York"},
	}

	for _, tt := range tests {
		if got := NormalizeTimezone(tt.input, tt.fallback); got != tt.want {
			t.Errorf("NormalizeTimezone(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPipeline(t *testing.T) {
	p := Pipeline{TrimAndNormalize, NormalizeTimeOfDay}
	if got := p.Apply("  9:15 "); got != "09:15" {
		t.Errorf("Pipeline.Apply = %q, want 09:15", got)
	}
}
