// Package forms holds the vendor form schema types and the pure
// transformations applied to them before rendering and before submission.
package forms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Element kinds reported by the vendor schema.
const (
	ElementTextInput = "input-text"
	ElementSelect    = "select"
)

// FlexString decodes vendor values that arrive as either JSON strings or
// numbers. Field ids in particular are numeric for regular fields but the
// literal "SOURCE" for the source field.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}

	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("forms: decode flexible string: %w", err)
	}
	*s = FlexString(num.String())
	return nil
}

// Flag decodes vendor boolean-ish values: true, 1 and "1" all mean set.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1", `"1"`, `"true"`:
		*f = true
	default:
		*f = false
	}
	return nil
}

// MarshalJSON keeps the vendor's "1"/"0" string convention so cached
// definitions round-trip without changing shape.
func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte(`"1"`), nil
	}
	return []byte(`"0"`), nil
}

// FlexFloat decodes decimal positions that may arrive as numbers or strings.
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}

	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if str == "" {
			*f = 0
			return nil
		}
		parsed, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("forms: decode order %q: %w", str, err)
		}
		*f = FlexFloat(parsed)
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*f = FlexFloat(num)
	return nil
}

// Option is one selectable value of a select field. When Options is non-empty
// the option is an option group and Label carries the group caption.
type Option struct {
	ID      FlexString `json:"id,omitempty"`
	Value   string     `json:"value,omitempty"`
	Label   string     `json:"label,omitempty"`
	Options []Option   `json:"options,omitempty"`
}

// Field is the vendor's description of one form field. Hidden and HiddenValue
// are set by the transformer; once hidden, the renderer emits the field as a
// hidden input carrying HiddenValue and it is no longer user-editable.
type Field struct {
	ID          FlexString `json:"id"`
	DisplayName string     `json:"displayName"`
	HTMLElement string     `json:"htmlElement"`
	Required    Flag       `json:"required"`
	Description string     `json:"description"`
	HelpText    string     `json:"helpText"`
	Options     []Option   `json:"options,omitempty"`
	Order       FlexFloat  `json:"order"`

	Hidden      bool   `json:"hidden,omitempty"`
	HiddenValue string `json:"hidden_value,omitempty"`
}

// Section groups an ordered sequence of fields. Insertion order is
// significant: it determines visual order and the paired-next-field adjacency
// used for SMS opt-in checkboxes.
type Section struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Fields      []Field `json:"fields"`
}

// Definition is the request-scoped form definition fetched from the vendor.
type Definition struct {
	Header    string    `json:"header,omitempty"`
	SubHeader string    `json:"subHeader,omitempty"`
	Sections  []Section `json:"sections"`
}

// Clone returns a deep copy. Transformations never mutate their input.
func (d Definition) Clone() Definition {
	out := d
	out.Sections = make([]Section, len(d.Sections))
	for i, section := range d.Sections {
		cpy := section
		cpy.Fields = make([]Field, len(section.Fields))
		copy(cpy.Fields, section.Fields)
		out.Sections[i] = cpy
	}
	return out
}

// FieldByID returns the first field with the given id, or nil.
func (d Definition) FieldByID(id string) *Field {
	for si := range d.Sections {
		for fi := range d.Sections[si].Fields {
			if string(d.Sections[si].Fields[fi].ID) == id {
				return &d.Sections[si].Fields[fi]
			}
		}
	}
	return nil
}
