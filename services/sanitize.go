package services

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// plainTextEntities decodes only the entities the policy writes for ordinary characters.
// &lt; and &gt; stay encoded so escaped markup cannot turn back into tags.
var plainTextEntities = strings.NewReplacer(
	"&amp;", "&",
	"&#34;", `"`,
	"&#39;", "'",
	"&quot;", `"`,
	"&#13;", "\r",
)

// SanitizeText strips all markup from free-text case fields, keeping plain text like
// "Smith & Jones" as typed.
func SanitizeText(s string) string {
	return strings.TrimSpace(plainTextEntities.Replace(textPolicy.Sanitize(s)))
}
