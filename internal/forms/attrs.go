package forms

import (
	"sort"
	"strconv"
	"strings"
)

// SourceKey is the vendor's field id for the inquiry source. Shortcode
// attributes are lower-cased by the host CMS while the vendor expects the
// uppercase literal.
const SourceKey = "SOURCE"

// Attributes is the parsed form of a shortcode/render attribute map: control
// flags pulled apart from the numeric-keyed presets.
type Attributes struct {
	Org      string
	FormID   string
	FieldIDs []string
	Presets  *PresetMap
}

// Empty reports whether the attributes carry no narrowing or presets at all.
func (a Attributes) Empty() bool {
	return len(a.FieldIDs) == 0 && (a.Presets == nil || a.Presets.Len() == 0)
}

// ParseAttributes builds typed attributes from a raw key/value map once at the
// boundary. Numeric keys are preset field ids, "source" maps to the uppercase
// SOURCE key, "fields" is a comma-separated allow-list and "org"/"form_id"
// select credentials and the vendor form.
func ParseAttributes(raw map[string]string) Attributes {
	attrs := Attributes{Presets: NewPresetMap()}

	// Numeric preset keys are inserted in ascending id order so that the
	// leftover-preset pass produces a deterministic field order.
	numeric := make([]string, 0, len(raw))
	for key := range raw {
		if isDigits(key) {
			numeric = append(numeric, key)
		}
	}
	sort.Slice(numeric, func(i, j int) bool {
		a, _ := strconv.Atoi(numeric[i])
		b, _ := strconv.Atoi(numeric[j])
		return a < b
	})
	for _, key := range numeric {
		attrs.Presets.Set(key, raw[key])
	}

	if source, ok := raw["source"]; ok {
		attrs.Presets.Set(SourceKey, source)
	}

	if fields, ok := raw["fields"]; ok {
		for _, id := range strings.Split(fields, ",") {
			id = strings.TrimSpace(id)
			if isDigits(id) {
				attrs.FieldIDs = append(attrs.FieldIDs, id)
			}
		}
	}

	attrs.Org = strings.TrimSpace(raw["org"])
	attrs.FormID = strings.TrimSpace(raw["form_id"])

	return attrs
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
