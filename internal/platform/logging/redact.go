package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// Values that are credentials whatever attribute carries them.
var (
	bearerValue = regexp.MustCompile(`(?i)^(bearer|basic)\s+\S+`)
	jwtValue    = regexp.MustCompile(`^eyJ[\w-]*\.eyJ[\w-]*\.[\w-]*$`)
)

// redactedFields are attribute and struct field names whose values never
// reach a log line: webhook secrets and signatures, quotation API
// credentials forwarded as custom headers, and author contact details.
var redactedFields = []string{
	"webhook_secret", "WebhookSecret",
	"signature", "Signature",
	"authorization", "Authorization",
	"api_key", "apiKey", "X-Api-Key",
	"token", "access_token", "password",
	"email", "Email", "author_email",
}

// RedactOptions returns the masq options applied by every handler New builds.
func RedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(redactedFields)+3)
	for _, name := range redactedFields {
		opts = append(opts, masq.WithFieldName(name))
	}

	return append(opts,
		masq.WithFieldPrefix("secret"),
		masq.WithRegex(bearerValue),
		masq.WithRegex(jwtValue),
	)
}

// NewReplaceAttr returns a slog ReplaceAttr hook redacting RedactOptions
// plus extra.
func NewReplaceAttr(extra ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(RedactOptions(), extra...)...)
}
