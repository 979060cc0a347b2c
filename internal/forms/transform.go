package forms

import (
	"go.uber.org/zap"

	"github.com/spectrumleads/formgate/pkg/logger"
)

// MiniDummyValue fills required fields that a narrowed ("mini") form neither
// shows nor presets. The vendor accepts it as a placeholder.
const MiniDummyValue = "mini-form"

// Minify narrows a form definition to the allow-listed field set and injects
// preset values, returning a new definition.
//
// When the allow-list is non-empty, fields outside it are dropped if optional
// and converted to hidden prefilled fields if required; a matching preset is
// consumed for the hidden value, otherwise the dummy sentinel is used. Presets
// left unconsumed become new hidden fields prepended to the first section,
// unless a field with the same id already exists in the schema, in which case
// the preset is dropped with a warning rather than clobbering the field.
func Minify(def Definition, attrs Attributes) Definition {
	out := def.Clone()
	presets := attrs.Presets.Clone()

	if len(attrs.FieldIDs) > 0 {
		allowed := make(map[string]struct{}, len(attrs.FieldIDs))
		for _, id := range attrs.FieldIDs {
			allowed[id] = struct{}{}
		}

		for si := range out.Sections {
			kept := out.Sections[si].Fields[:0]
			for _, field := range out.Sections[si].Fields {
				if _, ok := allowed[string(field.ID)]; ok {
					kept = append(kept, field)
					continue
				}

				if !bool(field.Required) {
					continue
				}

				field.Hidden = true
				if value, ok := presets.Get(string(field.ID)); ok {
					field.HiddenValue = value
					presets.Remove(string(field.ID))
				} else {
					field.HiddenValue = MiniDummyValue
				}
				kept = append(kept, field)
			}
			out.Sections[si].Fields = kept
		}
	}

	if presets.Len() > 0 && len(out.Sections) > 0 {
		for _, key := range presets.Keys() {
			value, _ := presets.Get(key)
			if out.FieldByID(key) != nil {
				// Never clobber a field the schema still carries.
				logger.WithModule("forms").Warn("preset collides with an existing form field, dropping",
					zap.String("field_id", key),
				)
				continue
			}

			hidden := Field{
				ID:          FlexString(key),
				Hidden:      true,
				HiddenValue: value,
			}
			out.Sections[0].Fields = append([]Field{hidden}, out.Sections[0].Fields...)
		}
	}

	return out
}

// Autofill hides and prefills every field whose id appears in the fieldIDs
// map, computing the value through lookup. It runs whether or not shortcode
// presets were supplied; autofilled fields (UTM parameters, page title) are
// typically outside the visible set so it cannot conflict with Minify.
func Autofill(def Definition, fieldIDs map[string]string, lookup func(name string) string) Definition {
	if len(fieldIDs) == 0 {
		return def
	}

	byFieldID := make(map[string]string, len(fieldIDs))
	for name, id := range fieldIDs {
		if id != "" {
			byFieldID[id] = name
		}
	}

	out := def.Clone()
	for si := range out.Sections {
		for fi := range out.Sections[si].Fields {
			field := &out.Sections[si].Fields[fi]
			name, ok := byFieldID[string(field.ID)]
			if !ok {
				continue
			}
			field.Hidden = true
			field.HiddenValue = lookup(name)
		}
	}
	return out
}
