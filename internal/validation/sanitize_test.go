package validation

import "testing"

func TestSanitizeAIResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text is untouched", "Safeway has eggs for $5.99", "Safeway has eggs for $5.99"},
		{"trims whitespace", "  hello \n", "hello"},
		{"removes script with content", "before<script>alert('x')</script>after", "beforeafter"},
		{"removes multiline script", "a<SCRIPT type=\"text/javascript\">\nsteal()\n</SCRIPT>b", "ab"},
		{"removes event handler", `<img src="x" onerror="alert(1)">`, `<img src="x" >`},
		{"removes javascript protocol", `<a href="javascript:void(0)">x</a>`, `<a href="void(0)">x</a>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeAIResponse(tt.input); got != tt.want {
				t.Errorf("SanitizeAIResponse() = %q, want %q", got, tt.want)
			}
		})
	}
}
