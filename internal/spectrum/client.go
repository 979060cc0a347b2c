// Package spectrum wraps over-the-network communication with the vendor API:
// listing submittable forms, fetching a form's field requirements and
// submitting completed forms.
package spectrum

import (
	"context"

	"github.com/spectrumleads/formgate/internal/forms"
)

// Vendor API paths relative to the configured base URL.
const (
	SubmittablePath  = "forms/submittable"
	RequirementsPath = "forms/requirements"
	SubmitPath       = "forms/submit"
	ClientRulesPath  = "field_rules/client_rules"
	FieldOptionsPath = "field_rules/field_options"
)

// APIKeyParam is the query/body key carrying the vendor API key.
const APIKeyParam = "IQS-API-KEY"

// DefaultFormName labels the inquiry form that always exists and is missing
// from the vendor's submittable list.
const DefaultFormName = "Inquiry Form"

// Credentials is a resolved client id / API key pair, immutable for the
// duration of one request.
type Credentials struct {
	ClientID string `json:"ClientID"`
	APIKey   string `json:"APIKey"`
}

// SubmissionResult is the uniform outcome of a form submission regardless of
// whether the vendor call failed transport-level, failed validation or
// succeeded. Status is 1 only when the vendor explicitly reported success.
type SubmissionResult struct {
	Status   int    `json:"status"`
	Response string `json:"response"`
	Data     any    `json:"data"`
}

// Client is the capability interface over the vendor API. The HTTP client
// talks to the real vendor; the sample client serves canned fixtures.
type Client interface {
	// FormsList returns form names mapped to their ids; the default inquiry
	// form appears with a nil id. Not cached: it backs the admin interface
	// only and must never be stale.
	FormsList(ctx context.Context, creds Credentials) (map[string]*string, error)

	// Requirements fetches the field requirements for a form; empty formID
	// selects the default form.
	Requirements(ctx context.Context, creds Credentials, formID string) (*forms.Definition, error)

	// Submit posts prepared fields to the vendor. It never returns an error:
	// all failure modes are folded into the SubmissionResult.
	Submit(ctx context.Context, creds Credentials, fields map[string]string) SubmissionResult
}
