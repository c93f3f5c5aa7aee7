package autoreply

import (
	"testing"
	"time"
)

func TestRender(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	testCases := []struct {
		name     string
		template string
		vars     TemplateVars
		expected string
	}{
		{
			name:     "sender and message substitution with suffix stripping",
			template: "Hi {sender}, you said {message}",
			vars:     TemplateVars{Sender: "15551234567@s.whatsapp.net", Message: "ok"},
			expected: "Hi 15551234567, you said ok",
		},
		{
			name:     "sender without suffix is used verbatim",
			template: "Hi {sender}",
			vars:     TemplateVars{Sender: "12345678"},
			expected: "Hi 12345678",
		},
		{
			name:     "time and date placeholders",
			template: "It is {time} on {date}",
			vars:     TemplateVars{Now: now},
			expected: "It is 09:26:53 on 2025-03-14",
		},
		{
			name:     "unrecognized placeholders are left verbatim",
			template: "Hello {name}, {sender} here",
			vars:     TemplateVars{Sender: "555@host"},
			expected: "Hello {name}, 555 here",
		},
		{
			name:     "template without placeholders",
			template: "plain response",
			vars:     TemplateVars{Sender: "x", Message: "y"},
			expected: "plain response",
		},
		{
			name:     "repeated placeholder",
			template: "{message} {message}",
			vars:     TemplateVars{Message: "twice"},
			expected: "twice twice",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := Render(tc.template, tc.vars); got != tc.expected {
				t.Errorf("Render(%q) = %q, want %q", tc.template, got, tc.expected)
			}
		})
	}
}
