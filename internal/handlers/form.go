package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spectrumleads/formgate/internal/forms"
	"github.com/spectrumleads/formgate/internal/nonce"
	"github.com/spectrumleads/formgate/internal/renderer"
	"github.com/spectrumleads/formgate/internal/settings"
	"github.com/spectrumleads/formgate/internal/spectrum"
	"github.com/spectrumleads/formgate/pkg/errors"
	"github.com/spectrumleads/formgate/pkg/logger"
	"github.com/spectrumleads/formgate/pkg/metrics"
)

// FormHandler renders the inquiry form and accepts browser submissions.
type FormHandler struct {
	client   spectrum.Client
	store    settings.Repository
	nonces   *nonce.Service
	renderer *renderer.Renderer

	clientRulesURL  string
	fieldOptionsURL string
	submitAction    string
}

// NewFormHandler wires the render and submit endpoints. baseURL is the vendor
// API base used to build the client-side rule endpoints.
func NewFormHandler(client spectrum.Client, store settings.Repository, nonces *nonce.Service, r *renderer.Renderer, baseURL string) *FormHandler {
	base := strings.TrimRight(baseURL, "/") + "/"
	return &FormHandler{
		client:          client,
		store:           store,
		nonces:          nonces,
		renderer:        r,
		clientRulesURL:  base + spectrum.ClientRulesPath,
		fieldOptionsURL: base + spectrum.FieldOptionsPath,
		submitAction:    "/submit",
	}
}

// GET /form
//
// Renders the inquiry form described by the query attributes. Failures never
// escape as HTTP errors: a broken vendor integration degrades to a plain-text
// message in place of the form.
func (h *FormHandler) Render(c *gin.Context) {
	raw := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			raw[key] = values[0]
		}
	}
	attrs := forms.ParseAttributes(raw)

	html, err := h.render(c, attrs)
	if err != nil {
		logger.WithModule("form").Warn("render failed",
			zap.String("org", attrs.Org),
			zap.String("form_id", attrs.FormID),
			zap.Error(err),
		)
		c.String(http.StatusOK, errors.FromError(err).Message)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (h *FormHandler) render(c *gin.Context, attrs forms.Attributes) (string, error) {
	ctx := c.Request.Context()

	blob, err := h.store.Load(ctx)
	if err != nil {
		return "", err
	}
	creds := blob.CredentialsForOrg(attrs.Org)
	if creds.APIKey == "" {
		return "", errors.ErrConfig
	}

	def, err := h.client.Requirements(ctx, creds, attrs.FormID)
	if err != nil {
		return "", err
	}

	transformed := *def
	if !attrs.Empty() {
		transformed = forms.Minify(transformed, attrs)
	}
	transformed = forms.Autofill(transformed, blob.UTMFieldIDs(), c.Query)
	transformed = forms.Autofill(transformed, blob.PageTitleFieldIDs(), c.Query)

	token, err := h.nonces.Issue(ctx)
	if err != nil {
		return "", err
	}

	page := renderer.BuildPage(transformed)
	page.Org = attrs.Org
	page.FormID = attrs.FormID
	page.ReferringPage = c.Query("referring_page")
	if page.ReferringPage == "" {
		page.ReferringPage = c.Request.Referer()
	}
	page.Nonce = token
	page.NonceField = nonce.FieldName
	page.Action = h.submitAction
	page.ClientID = creds.ClientID
	page.ClientRulesURL = h.clientRulesURL
	page.FieldOptionsURL = h.fieldOptionsURL

	return h.renderer.Render(page)
}

// POST /submit
//
// Accepts the browser's form-encoded submission and forwards it to the
// vendor. The response is always HTTP 200 carrying a SubmissionResult; the
// browser controller decides what to do with it.
func (h *FormHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	if err := c.Request.ParseForm(); err != nil {
		c.JSON(http.StatusOK, spectrum.SubmissionResult{
			Status:   0,
			Response: errors.ErrBadRequest.Message,
			Data:     "",
		})
		return
	}

	post := make(map[string]string, len(c.Request.PostForm))
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			post[key] = values[0]
		}
	}

	token := post[nonce.FieldName]
	delete(post, nonce.FieldName)
	if !h.nonces.Verify(ctx, token) {
		metrics.SubmissionResults.WithLabelValues("nonce_rejected").Inc()
		c.JSON(http.StatusOK, spectrum.SubmissionResult{
			Status:   0,
			Response: errors.ErrNonce.Message,
			Data:     "",
		})
		return
	}

	blob, err := h.store.Load(ctx)
	if err != nil {
		c.JSON(http.StatusOK, spectrum.SubmissionResult{
			Status:   0,
			Response: errors.ErrInternalServer.Message,
			Data:     "",
		})
		return
	}
	creds := blob.CredentialsForOrg(post["org"])

	fields := forms.PrepareSubmission(post)
	result := h.client.Submit(ctx, creds, fields)

	outcome := "failure"
	if result.Status == 1 {
		outcome = "success"
	}
	metrics.SubmissionResults.WithLabelValues(outcome).Inc()

	c.JSON(http.StatusOK, result)
}
