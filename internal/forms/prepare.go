package forms

import (
	"strings"

	"github.com/spectrumleads/formgate/pkg/sanitize"
)

// PhoneFieldsKey is the hidden control field listing phone field ids, written
// by the renderer and consumed here before the payload goes to the vendor.
const PhoneFieldsKey = "phone_fields"

// optInMarker tags checkbox field names that represent an SMS opt-in. Absent
// checkboxes never appear as POST keys, so presence alone means checked.
const optInMarker = "-text-opt-in"

// PrepareSubmission sanitizes and reshapes a raw submitted payload for the
// vendor: phone fields are reduced to digits and prefixed with an URL-encoded
// +1, opt-in checkboxes are coerced to "1" and everything else passes through
// generic text sanitization. The phone_fields control entry is consumed.
func PrepareSubmission(post map[string]string) map[string]string {
	var phoneFields []string
	if raw, ok := post[PhoneFieldsKey]; ok {
		for _, id := range strings.Split(sanitize.Text(raw), ",") {
			if id = strings.TrimSpace(id); id != "" {
				phoneFields = append(phoneFields, id)
			}
		}
	}

	prepared := make(map[string]string, len(post))
	for key, value := range post {
		if key == PhoneFieldsKey {
			continue
		}

		switch {
		case containsString(phoneFields, key):
			prepared[key] = normalizePhone(value)
		case strings.Contains(strings.ToLower(key), optInMarker):
			prepared[key] = "1"
		default:
			prepared[key] = sanitize.Text(value)
		}
	}
	return prepared
}

// normalizePhone strips everything except digits and prefixes the US country
// code, URL-encoded for the vendor POST. Empty values stay empty.
func normalizePhone(value string) string {
	var digits strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	return "%2B1" + digits.String()
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
