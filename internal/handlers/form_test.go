package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/spectrumleads/formgate/internal/cache"
	"github.com/spectrumleads/formgate/internal/forms"
	"github.com/spectrumleads/formgate/internal/nonce"
	"github.com/spectrumleads/formgate/internal/renderer"
	"github.com/spectrumleads/formgate/internal/settings"
	"github.com/spectrumleads/formgate/internal/spectrum"
)

type memoryRepository struct {
	blob settings.Blob
}

func (r *memoryRepository) Load(context.Context) (settings.Blob, error) { return r.blob, nil }

func (r *memoryRepository) Save(_ context.Context, blob settings.Blob) error {
	r.blob = blob.Sanitized()
	return nil
}

type fakeClient struct {
	definition forms.Definition
	result     spectrum.SubmissionResult

	submittedCreds  spectrum.Credentials
	submittedFields map[string]string

	listedCreds       spectrum.Credentials
	requirementsCreds spectrum.Credentials
	requirementsForm  string
}

func (c *fakeClient) FormsList(_ context.Context, creds spectrum.Credentials) (map[string]*string, error) {
	c.listedCreds = creds
	return map[string]*string{spectrum.DefaultFormName: nil}, nil
}

func (c *fakeClient) Requirements(_ context.Context, creds spectrum.Credentials, formID string) (*forms.Definition, error) {
	c.requirementsCreds = creds
	c.requirementsForm = formID
	def := c.definition
	return &def, nil
}

func (c *fakeClient) Submit(_ context.Context, creds spectrum.Credentials, fields map[string]string) spectrum.SubmissionResult {
	c.submittedCreds = creds
	c.submittedFields = fields
	return c.result
}

func handlerDefinition() forms.Definition {
	return forms.Definition{
		Sections: []forms.Section{
			{Name: "Contact", Fields: []forms.Field{
				{ID: "1", DisplayName: "First Name", HTMLElement: forms.ElementTextInput, Required: true, Order: 1},
				{ID: "4", DisplayName: "Mobile Phone", HTMLElement: forms.ElementTextInput, Description: "Please enter your phone number.", Order: 2},
			}},
		},
	}
}

func newFormRouter(t *testing.T, client spectrum.Client, repo settings.Repository, nonces *nonce.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r, err := renderer.New()
	require.NoError(t, err)

	handler := NewFormHandler(client, repo, nonces, r, "https://vendor.example/api")

	engine := gin.New()
	engine.GET("/form", handler.Render)
	engine.POST("/submit", handler.Submit)
	return engine
}

func TestRenderReturnsForm(t *testing.T) {
	client := &fakeClient{definition: handlerDefinition()}
	repo := &memoryRepository{blob: settings.Blob{APIKey: "key", ClientID: "client-1"}}
	nonces := nonce.NewService(cache.NewMemoryStore(), time.Hour)

	engine := newFormRouter(t, client, repo, nonces)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/form", nil)
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, `id="iqs-inquiry-form"`)
	require.Contains(t, body, `name="inquiry_nonce"`)
	require.Contains(t, body, `client_id: "client-1"`)
	require.Contains(t, body, `name="phone_fields" value="4"`)
}

func TestRenderMissingAPIKeyDegradesToMessage(t *testing.T) {
	client := &fakeClient{definition: handlerDefinition()}
	repo := &memoryRepository{}
	nonces := nonce.NewService(cache.NewMemoryStore(), time.Hour)

	engine := newFormRouter(t, client, repo, nonces)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/form", nil)
	engine.ServeHTTP(w, req)

	// Errors degrade to a displayable message, never an error status.
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "API Key missing")
	require.NotContains(t, w.Body.String(), "<form")
}

func TestRenderMiniForm(t *testing.T) {
	client := &fakeClient{definition: handlerDefinition()}
	repo := &memoryRepository{blob: settings.Blob{APIKey: "key", ClientID: "client-1"}}
	nonces := nonce.NewService(cache.NewMemoryStore(), time.Hour)

	engine := newFormRouter(t, client, repo, nonces)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/form?fields=4&source=unit", nil)
	engine.ServeHTTP(w, req)

	body := w.Body.String()
	// Required field 1 outside the allow-list becomes a hidden dummy input.
	require.Contains(t, body, `<input type="hidden" name="1" value="mini-form">`)
	require.Contains(t, body, `<input type="hidden" name="SOURCE" value="unit">`)
}

func submitForm(engine *gin.Engine, values url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	engine.ServeHTTP(w, req)
	return w
}

func TestSubmitForwardsPreparedFields(t *testing.T) {
	client := &fakeClient{
		definition: handlerDefinition(),
		result:     spectrum.SubmissionResult{Status: 1, Response: "ok", Data: "https://example.edu/thanks"},
	}
	repo := &memoryRepository{blob: settings.Blob{APIKey: "key", ClientID: "client-1"}}
	nonces := nonce.NewService(cache.NewMemoryStore(), time.Hour)
	engine := newFormRouter(t, client, repo, nonces)

	token, err := nonces.Issue(context.Background())
	require.NoError(t, err)

	w := submitForm(engine, url.Values{
		nonce.FieldName: {token},
		"phone_fields":  {"4"},
		"1":             {"Jane"},
		"4":             {"(617) 555-0100"},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var result spectrum.SubmissionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Equal(t, 1, result.Status)

	require.Equal(t, "key", client.submittedCreds.APIKey)
	require.Equal(t, "%2B16175550100", client.submittedFields["4"])
	require.Equal(t, "Jane", client.submittedFields["1"])
	_, hasNonce := client.submittedFields[nonce.FieldName]
	require.False(t, hasNonce)
}

func TestSubmitRejectsUnknownNonce(t *testing.T) {
	client := &fakeClient{
		definition: handlerDefinition(),
		result:     spectrum.SubmissionResult{Status: 1, Response: "ok", Data: ""},
	}
	repo := &memoryRepository{blob: settings.Blob{APIKey: "key"}}
	nonces := nonce.NewService(cache.NewMemoryStore(), time.Hour)
	engine := newFormRouter(t, client, repo, nonces)

	for _, token := range []string{"made-up", ""} {
		w := submitForm(engine, url.Values{nonce.FieldName: {token}, "1": {"Jane"}})
		require.Equal(t, http.StatusOK, w.Code)

		var result spectrum.SubmissionResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		require.Equal(t, 0, result.Status)
		require.Contains(t, result.Response, "nonce")
		require.Nil(t, client.submittedFields)
	}
}

func TestSubmitTimeoutRetryReachesVendor(t *testing.T) {
	client := &fakeClient{
		definition: handlerDefinition(),
		result: spectrum.SubmissionResult{
			Status:   0,
			Response: "Failed submitting to the form API. Please retry. Error: Post \"https://vendor.example/api\": context deadline exceeded",
			Data:     "",
		},
	}
	repo := &memoryRepository{blob: settings.Blob{APIKey: "key"}}
	nonces := nonce.NewService(cache.NewMemoryStore(), time.Hour)
	engine := newFormRouter(t, client, repo, nonces)

	token, err := nonces.Issue(context.Background())
	require.NoError(t, err)

	// The retry controller resubmits the identical serialized form, so both
	// requests carry the same nonce.
	payload := url.Values{nonce.FieldName: {token}, "1": {"Jane"}}

	first := submitForm(engine, payload)
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, "Jane", client.submittedFields["1"])

	var result spectrum.SubmissionResult
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &result))
	require.Equal(t, 0, result.Status)
	require.Contains(t, result.Response, "context deadline exceeded")

	client.submittedFields = nil
	client.result = spectrum.SubmissionResult{Status: 1, Response: "ok", Data: "https://example.edu/thanks"}

	second := submitForm(engine, payload)
	require.Equal(t, http.StatusOK, second.Code)
	require.Equal(t, "Jane", client.submittedFields["1"])

	result = spectrum.SubmissionResult{}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &result))
	require.Equal(t, 1, result.Status)
}

func TestSubmitUsesAlternateCredentials(t *testing.T) {
	client := &fakeClient{
		definition: handlerDefinition(),
		result:     spectrum.SubmissionResult{Status: 1, Response: "ok", Data: ""},
	}
	repo := &memoryRepository{blob: settings.Blob{
		APIKey:   "default-key",
		ClientID: "default-client",
		AlternateCredentials: map[string]spectrum.Credentials{
			"med": {ClientID: "med-client", APIKey: "med-key"},
		},
	}}
	nonces := nonce.NewService(cache.NewMemoryStore(), time.Hour)
	engine := newFormRouter(t, client, repo, nonces)

	token, err := nonces.Issue(context.Background())
	require.NoError(t, err)

	submitForm(engine, url.Values{nonce.FieldName: {token}, "org": {"med"}, "1": {"Jane"}})
	require.Equal(t, "med-key", client.submittedCreds.APIKey)

	// Unknown orgs fall back to the default pair.
	token, err = nonces.Issue(context.Background())
	require.NoError(t, err)
	submitForm(engine, url.Values{nonce.FieldName: {token}, "org": {"nope"}, "1": {"Jane"}})
	require.Equal(t, "default-key", client.submittedCreds.APIKey)
}
