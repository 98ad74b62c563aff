package sanitizer

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  Asha Rao  ",
			want:  "Asha Rao",
		},
		{
			name:  "multiple spaces between words",
			input: "Asha    Rao",
			want:  "Asha Rao",
		},
		{
			name:  "tabs and newlines",
			input: "Asha\t\nRao",
			want:  "Asha Rao",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "preserve special characters",
			input: " Café & Spa™ ",
			want:  "Café & Spa™",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeName(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := NormalizeName(got); again != got {
				t.Errorf("NormalizeName not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestNormalizeMessage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "keeps newlines", input: "see you\nat 10", want: "see you\nat 10"},
		{name: "strips bell and nul", input: "hi\a there\x00", want: "hi there"},
		{name: "trims", input: "  ok  ", want: "ok"},
		{name: "only control", input: "\x01\x02", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeMessage(tt.input); got != tt.want {
				t.Errorf("NormalizeMessage(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeID(t *testing.T) {
	if got := NormalizeID(" 507f1f77bcf86cd799439011\n"); got != "507f1f77bcf86cd799439011" {
		t.Errorf("NormalizeID() = %q", got)
	}
}
