package autoreply

import (
	"strings"
	"time"
)

// TemplateVars holds the values substituted into a rule response.
type TemplateVars struct {
	Sender  string
	Message string
	Now     time.Time
}

// Render expands the literal placeholders {sender}, {message}, {time}
// and {date} in a rule response. {sender} is reduced to its raw user
// component (anything after an @ or : suffix is stripped). Unrecognized
// placeholders are left verbatim. The templater never invokes
// user-supplied code.
func Render(template string, vars TemplateVars) string {
	now := vars.Now
	if now.IsZero() {
		now = time.Now()
	}

	r := strings.NewReplacer(
		"{sender}", stripSenderSuffix(vars.Sender),
		"{message}", vars.Message,
		"{time}", now.Format("15:04:05"),
		"{date}", now.Format("2006-01-02"),
	)
	return r.Replace(template)
}

// stripSenderSuffix reduces a sender identifier like
// "15551234567@s.whatsapp.net" to its raw user component.
func stripSenderSuffix(sender string) string {
	if idx := strings.IndexAny(sender, "@:"); idx != -1 {
		return sender[:idx]
	}
	return sender
}
