package spectrum

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/spectrumleads/formgate/internal/forms"
)

//go:embed sample/*.json
var sampleFS embed.FS

// Submission outcomes the sample client can simulate.
const (
	SampleOutcomeSuccess   = "success"
	SampleOutcomeInvalid   = "invalid"
	SampleOutcomeDuplicate = "duplicate"
)

// SampleClient serves canned fixture responses in place of the real vendor.
// Used during development so no requests leave the machine.
type SampleClient struct {
	// Outcome selects which canned submit result is returned.
	Outcome string
}

// NewSampleClient constructs a fixture-backed client that reports successful
// submissions.
func NewSampleClient() *SampleClient {
	return &SampleClient{Outcome: SampleOutcomeSuccess}
}

// FormsList implements Client with a fixed single-entry list.
func (c *SampleClient) FormsList(_ context.Context, _ Credentials) (map[string]*string, error) {
	return map[string]*string{DefaultFormName: nil}, nil
}

// Requirements implements Client from the embedded fixture definition.
func (c *SampleClient) Requirements(_ context.Context, _ Credentials, _ string) (*forms.Definition, error) {
	raw, err := sampleFS.ReadFile("sample/requirements.json")
	if err != nil {
		return nil, fmt.Errorf("spectrum: read sample requirements: %w", err)
	}

	var definition forms.Definition
	if err := json.Unmarshal(raw, &definition); err != nil {
		return nil, fmt.Errorf("spectrum: decode sample requirements: %w", err)
	}
	return &definition, nil
}

// Submit implements Client with a canned result chosen by Outcome.
func (c *SampleClient) Submit(_ context.Context, _ Credentials, _ map[string]string) SubmissionResult {
	name := "sample/good_form.json"
	switch c.Outcome {
	case SampleOutcomeInvalid:
		name = "sample/bad_form.json"
	case SampleOutcomeDuplicate:
		name = "sample/duplicate_form.json"
	}

	raw, err := sampleFS.ReadFile(name)
	if err != nil {
		return SubmissionResult{Status: 0, Response: "sample fixture missing", Data: ""}
	}

	var result SubmissionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return SubmissionResult{Status: 0, Response: "sample fixture malformed", Data: ""}
	}
	return result
}
