package classifier

import "regexp"

const redacted = "[REDACTED]"

type secretPattern struct {
	re          *regexp.Regexp
	replacement string
}

// credential shapes that provider error bodies and transport errors can echo back
var secretPatterns = []secretPattern{
	// OpenAI keys, including the partially masked form OpenAI puts in 401 bodies
	{re: regexp.MustCompile(`\bsk-(?:proj-)?[A-Za-z0-9_\-*]{16,}`), replacement: redacted},
	// Google API keys
	{re: regexp.MustCompile(`\bAIza[0-9A-Za-z\-_]{35}\b`), replacement: redacted},
	{re: regexp.MustCompile(`\beyJ[A-Za-z0-9_\-]+\.eyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+`), replacement: redacted},
	{re: regexp.MustCompile(`(?i)\b(bearer\s+)[A-Za-z0-9_\-.=]{16,}`), replacement: "${1}" + redacted},
	{re: regexp.MustCompile(`(?i)([?&](?:key|api_key|apikey|access_token)=)[^&\s"']+`), replacement: "${1}" + redacted},
}

// Redact masks credentials in s so raw provider errors can be logged and shown
// in diagnostics.
func Redact(s string) string {
	for _, p := range secretPatterns {
		s = p.re.ReplaceAllString(s, p.replacement)
	}
	return s
}
