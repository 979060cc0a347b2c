package sanitize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextPassesPlainValues(t *testing.T) {
	require.Equal(t, "Jane Doe", Text("Jane Doe"))
	require.Equal(t, "jane@example.edu", Text("jane@example.edu"))
	require.Equal(t, "(617) 555-0100", Text("(617) 555-0100"))
}

func TestTextStripsMarkup(t *testing.T) {
	require.Equal(t, "Jane Doe", Text("Jane <b>Doe</b>"))
	require.Equal(t, "Jane Doe", Text(`Jane <script>alert(1)</script> Doe`))
	require.Equal(t, "", Text(`<img src=x onerror=alert(1)>`))
}

func TestTextDecodesEntities(t *testing.T) {
	require.Equal(t, "Smith & Sons", Text("Smith &amp; Sons"))
}

func TestTextEntityEncodedMarkupNeverSurvives(t *testing.T) {
	// Decoding &lt;script&gt; re-forms a live tag, so stripping must continue
	// until nothing decodable is left.
	require.Equal(t, "alert(1)", Text("&lt;b&gt;alert(1)&lt;/b&gt;"))
	require.Equal(t, "", Text("&lt;script&gt;alert(1)&lt;/script&gt;"))
	require.Equal(t, "", Text("&amp;lt;script&amp;gt;alert(1)&amp;lt;/script&amp;gt;"))
	require.NotContains(t, Text("&lt;img src=x onerror=alert(1)&gt;"), "<")
}

func TestTextIdempotent(t *testing.T) {
	inputs := []string{
		"Jane Doe",
		"Smith &amp; Sons",
		"Smith & Sons",
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"Jane <b>Doe</b>",
		"  spaced   out  ",
	}
	for _, input := range inputs {
		once := Text(input)
		require.Equal(t, once, Text(once), "input %q", input)
	}
}

func TestTextCollapsesWhitespace(t *testing.T) {
	require.Equal(t, "Jane Doe", Text("  Jane \t\n Doe  "))
	require.Equal(t, "", Text("   "))
	require.Equal(t, "", Text(""))
}
