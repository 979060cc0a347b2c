// Package sanitize normalises user-submitted text before it is forwarded to
// the vendor API. Markup is stripped rather than escaped so that applying the
// sanitizer twice yields the same result.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	once   sync.Once
	strict *bluemonday.Policy
)

func policy() *bluemonday.Policy {
	once.Do(func() {
		strict = bluemonday.StrictPolicy()
	})
	return strict
}

// maxStripPasses bounds the strip/decode loop. Each pass unwraps one level of
// entity encoding, so nesting deeper than this is discarded as noise.
const maxStripPasses = 8

// Text strips markup from a single form value, decodes entities back to plain
// text and collapses whitespace runs. Safe ASCII input passes through
// untouched.
//
// Decoding an entity can re-form markup (&lt;script&gt; becomes <script>), so
// the value is stripped and decoded repeatedly until it stops changing. The
// fixpoint keeps Text idempotent and never returns live markup.
func Text(value string) string {
	cleaned := value
	for i := 0; i < maxStripPasses; i++ {
		next := html.UnescapeString(policy().Sanitize(cleaned))
		if next == cleaned {
			return collapseWhitespace(cleaned)
		}
		cleaned = next
	}
	return ""
}

func collapseWhitespace(value string) string {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return ""
	}
	return strings.Join(fields, " ")
}
