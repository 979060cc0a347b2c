// Package settings persists the single named configuration blob: the default
// credential pair, UTM field-id mappings, the page-title field id and the
// dictionary of named alternate credential sets.
package settings

import (
	"context"
	"strings"

	"github.com/spectrumleads/formgate/internal/spectrum"
)

// UTM parameter names, in their canonical order.
var UTMNames = []string{"utm_source", "utm_campaign", "utm_content", "utm_medium", "utm_term"}

// PageTitleName is the settings key for the page-title autofill field id.
const PageTitleName = "page_title"

// Blob is the persisted settings record. UTM values map a query-string
// parameter name to the vendor field id that should capture it.
type Blob struct {
	APIKey   string `json:"APIKey"`
	ClientID string `json:"ClientID"`

	UTMSource   string `json:"utm_source"`
	UTMCampaign string `json:"utm_campaign"`
	UTMContent  string `json:"utm_content"`
	UTMMedium   string `json:"utm_medium"`
	UTMTerm     string `json:"utm_term"`
	PageTitle   string `json:"page_title"`

	AlternateCredentials map[string]spectrum.Credentials `json:"alternate_credentials,omitempty"`
}

// Repository provides read/write access to the settings blob. Components
// receive it by injection and read a frozen snapshot once per request.
type Repository interface {
	Load(ctx context.Context) (Blob, error)
	Save(ctx context.Context, blob Blob) error
}

// DefaultCredentials returns the default credential pair.
func (b Blob) DefaultCredentials() spectrum.Credentials {
	return spectrum.Credentials{ClientID: b.ClientID, APIKey: b.APIKey}
}

// CredentialsForOrg resolves credentials for an organization key. Unknown or
// empty keys fall back to the default credentials rather than failing.
func (b Blob) CredentialsForOrg(orgKey string) spectrum.Credentials {
	if orgKey != "" {
		if creds, ok := b.AlternateCredentials[orgKey]; ok && creds.ClientID != "" && creds.APIKey != "" {
			return creds
		}
	}
	return b.DefaultCredentials()
}

// UTMFieldIDs maps each configured UTM parameter name to its vendor field id,
// skipping unset entries.
func (b Blob) UTMFieldIDs() map[string]string {
	values := map[string]string{
		"utm_source":   b.UTMSource,
		"utm_campaign": b.UTMCampaign,
		"utm_content":  b.UTMContent,
		"utm_medium":   b.UTMMedium,
		"utm_term":     b.UTMTerm,
	}

	result := make(map[string]string)
	for _, name := range UTMNames {
		if id := strings.TrimSpace(values[name]); id != "" {
			result[name] = id
		}
	}
	return result
}

// PageTitleFieldIDs returns the page-title autofill mapping, empty when unset.
func (b Blob) PageTitleFieldIDs() map[string]string {
	id := strings.TrimSpace(b.PageTitle)
	if id == "" {
		return nil
	}
	return map[string]string{PageTitleName: id}
}

// Sanitized returns a copy with every field trimmed and alternate entries
// missing either credential silently dropped.
func (b Blob) Sanitized() Blob {
	out := b
	out.APIKey = strings.TrimSpace(b.APIKey)
	out.ClientID = strings.TrimSpace(b.ClientID)
	out.UTMSource = strings.TrimSpace(b.UTMSource)
	out.UTMCampaign = strings.TrimSpace(b.UTMCampaign)
	out.UTMContent = strings.TrimSpace(b.UTMContent)
	out.UTMMedium = strings.TrimSpace(b.UTMMedium)
	out.UTMTerm = strings.TrimSpace(b.UTMTerm)
	out.PageTitle = strings.TrimSpace(b.PageTitle)

	out.AlternateCredentials = nil
	for orgKey, creds := range b.AlternateCredentials {
		orgKey = strings.TrimSpace(orgKey)
		clientID := strings.TrimSpace(creds.ClientID)
		apiKey := strings.TrimSpace(creds.APIKey)
		if orgKey == "" || clientID == "" || apiKey == "" {
			continue
		}
		if out.AlternateCredentials == nil {
			out.AlternateCredentials = make(map[string]spectrum.Credentials)
		}
		out.AlternateCredentials[orgKey] = spectrum.Credentials{ClientID: clientID, APIKey: apiKey}
	}
	return out
}
