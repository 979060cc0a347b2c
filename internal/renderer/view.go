package renderer

import (
	"fmt"
	"html/template"
	"math"
	"regexp"
	"strings"

	"github.com/spectrumleads/formgate/internal/forms"
)

// Rendered field kinds.
const (
	kindHidden = "hidden"
	kindText   = "text"
	kindSelect = "select"
)

// CSS classes attached to text inputs based on the vendor's field
// description. The phone class also enrolls the field id in the phone_fields
// control list consumed on submit.
const (
	classPhone  = "iqs-form-phone-number"
	classEmail  = "iqs-form-email"
	classText   = "iqs-form-text"
	classSelect = "iqs-form-single-select"
)

const optInModalID = "text-message-opt-in-modal"

var optInPolicyPattern = regexp.MustCompile(`(?i)opt-in policy`)

// Page is the full view model handed to the form template.
type Page struct {
	Org             string
	FormID          string
	ReferringPage   string
	Nonce           string
	NonceField      string
	Action          string
	ClientID        string
	ClientRulesURL  string
	FieldOptionsURL string

	Header      string
	SubHeader   string
	Sections    []SectionView
	PhoneFields string
	Modals      []ModalView
}

// SectionView is one rendered section.
type SectionView struct {
	Name        string
	Description string
	Fields      []FieldView
}

// FieldView is one rendered field. Exactly one of the kind-specific shapes is
// populated based on Kind.
type FieldView struct {
	Kind        string
	ID          string
	Label       string
	Placeholder string
	Class       string
	Required    bool
	HelpText    template.HTML
	HiddenValue string
	Options     []OptionView
	OptIn       *OptInView
}

// OptionView is a flattened select option; Group carries nested options for
// option groups.
type OptionView struct {
	Value string
	Label string
	Group []OptionView
}

// OptInView renders the SMS opt-in checkbox paired with a phone field.
type OptInView struct {
	ID    string
	Label template.HTML
}

// ModalView is a dialog emitted after the form, referenced by an in-form link.
type ModalView struct {
	ID    string
	Title string
	Body  template.HTML
}

// BuildPage precomputes everything the template needs from a transformed
// definition. It applies the address label overrides, sniffs phone and email
// fields from descriptions, pairs SMS opt-in checkboxes with the preceding
// phone field via the order-adjacency rule and expands select options.
func BuildPage(def forms.Definition) Page {
	page := Page{
		Header:    def.Header,
		SubHeader: def.SubHeader,
	}

	var phoneFields []string
	for _, section := range def.Sections {
		view := SectionView{Name: section.Name, Description: section.Description}
		skipNext := false
		for i, field := range section.Fields {
			if skipNext {
				skipNext = false
				continue
			}

			if field.Hidden {
				view.Fields = append(view.Fields, FieldView{
					Kind:        kindHidden,
					ID:          string(field.ID),
					HiddenValue: field.HiddenValue,
				})
				continue
			}

			switch field.HTMLElement {
			case forms.ElementTextInput:
				fv := textFieldView(field)
				if fv.Class == classPhone {
					phoneFields = append(phoneFields, string(field.ID))
					if paired, ok := pairedOptIn(section.Fields, i); ok {
						fv.OptIn = optInView(paired)
						page.Modals = append(page.Modals, ModalView{
							ID:    optInModalID,
							Title: "Text Message Opt-in Policy",
							Body:  template.HTML(paired.HelpText),
						})
						skipNext = true
					}
				}
				view.Fields = append(view.Fields, fv)
			case forms.ElementSelect:
				view.Fields = append(view.Fields, selectFieldView(field))
			}
		}
		page.Sections = append(page.Sections, view)
	}

	page.PhoneFields = strings.Join(phoneFields, ",")
	return page
}

// fieldLabel applies the address label overrides: the vendor ships both
// address lines labeled "Address Line", the rendered form shows "Address" for
// the first and no label for the second.
func fieldLabel(field forms.Field) string {
	switch string(field.ID) {
	case "6":
		return "Address"
	case "7":
		return ""
	default:
		return field.DisplayName
	}
}

func textFieldView(field forms.Field) FieldView {
	class := classText
	if strings.Contains(strings.ToLower(field.Description), "phone number") {
		class = classPhone
	} else if strings.Contains(strings.ToLower(field.Description), "valid email") {
		class = classEmail
	}

	return FieldView{
		Kind:        kindText,
		ID:          string(field.ID),
		Label:       fieldLabel(field),
		Placeholder: field.DisplayName,
		Class:       class,
		Required:    bool(field.Required),
		HelpText:    template.HTML(field.HelpText),
	}
}

// pairedOptIn reports whether the field after index i is the SMS opt-in
// checkbox for the phone field at i. The vendor marks the pairing by giving
// the checkbox an order 0.1 past the phone field's. Orders arrive as parsed
// decimals, so the gap is compared with a tolerance rather than exactly
// (1.1+0.1 is not the float64 closest to 1.2).
func pairedOptIn(fields []forms.Field, i int) (forms.Field, bool) {
	if i+1 >= len(fields) {
		return forms.Field{}, false
	}
	next := fields[i+1]
	gap := float64(next.Order) - float64(fields[i].Order)
	if math.Abs(gap-0.1) > 1e-9 {
		return forms.Field{}, false
	}
	return next, true
}

func optInView(field forms.Field) *OptInView {
	label := strings.TrimSpace(field.DisplayName)
	link := fmt.Sprintf(`<a href="#%s" id="opt-in-trigger">opt-in policy</a>`, optInModalID)
	label = optInPolicyPattern.ReplaceAllString(label, link)
	return &OptInView{
		ID:    string(field.ID),
		Label: template.HTML(label),
	}
}

func selectFieldView(field forms.Field) FieldView {
	fv := FieldView{
		Kind:     kindSelect,
		ID:       string(field.ID),
		Label:    fieldLabel(field),
		Class:    classSelect,
		Required: bool(field.Required),
		HelpText: template.HTML(field.HelpText),
	}

	// State/region select gets an extra catch-all choice ahead of the
	// vendor-supplied options.
	if string(field.ID) == "9" {
		fv.Options = append(fv.Options, OptionView{
			Value: "Outside US & Canada",
			Label: "Outside US & Canada",
		})
	}

	for _, option := range field.Options {
		if len(option.Options) > 0 {
			group := OptionView{Label: option.Label}
			for _, sub := range option.Options {
				group.Group = append(group.Group, OptionView{
					Value: string(sub.ID),
					Label: sub.Value,
				})
			}
			fv.Options = append(fv.Options, group)
			continue
		}
		fv.Options = append(fv.Options, OptionView{
			Value: string(option.ID),
			Label: option.Value,
		})
	}
	return fv
}
