package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spectrumleads/formgate/internal/settings"
	"github.com/spectrumleads/formgate/internal/spectrum"
	"github.com/spectrumleads/formgate/pkg/response"
)

// AdminHandler manages credential settings and form discovery for the admin
// interface.
type AdminHandler struct {
	client spectrum.Client
	store  settings.Repository
}

func NewAdminHandler(client spectrum.Client, store settings.Repository) *AdminHandler {
	return &AdminHandler{client: client, store: store}
}

type credentialsRequest struct {
	APIKey   string `json:"APIKey" validate:"required"`
	ClientID string `json:"ClientID" validate:"required"`

	UTMSource   string `json:"utm_source"`
	UTMCampaign string `json:"utm_campaign"`
	UTMContent  string `json:"utm_content"`
	UTMMedium   string `json:"utm_medium"`
	UTMTerm     string `json:"utm_term"`
	PageTitle   string `json:"page_title"`

	AlternateCredentials map[string]spectrum.Credentials `json:"alternate_credentials"`
}

// GET /api/credentials
func (h *AdminHandler) GetCredentials(c *gin.Context) {
	blob, err := h.store.Load(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, blob)
}

// POST /api/credentials
//
// Saves the settings blob. Values are trimmed and alternate credential sets
// missing either half of the pair are dropped rather than rejected.
func (h *AdminHandler) SaveCredentials(c *gin.Context) {
	var req credentialsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	blob := settings.Blob{
		APIKey:               req.APIKey,
		ClientID:             req.ClientID,
		UTMSource:            req.UTMSource,
		UTMCampaign:          req.UTMCampaign,
		UTMContent:           req.UTMContent,
		UTMMedium:            req.UTMMedium,
		UTMTerm:              req.UTMTerm,
		PageTitle:            req.PageTitle,
		AlternateCredentials: req.AlternateCredentials,
	}

	if err := h.store.Save(c.Request.Context(), blob); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, blob.Sanitized())
}

// GET /api/forms
//
// Lists the submittable forms available to the selected credentials. The
// default inquiry form appears with a null id. An optional org_key query
// selects an alternate credential set, falling back to the default pair.
func (h *AdminHandler) ListForms(c *gin.Context) {
	ctx := c.Request.Context()

	blob, err := h.store.Load(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}

	list, err := h.client.FormsList(ctx, blob.CredentialsForOrg(c.Query("org_key")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, list)
}

// GET /api/forms/:form_id/fields
//
// Fetches the field requirements for one form. The literal id "default"
// selects the default inquiry form.
func (h *AdminHandler) FormFields(c *gin.Context) {
	ctx := c.Request.Context()

	formID := c.Param("form_id")
	if formID == "default" {
		formID = ""
	}

	blob, err := h.store.Load(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}

	def, err := h.client.Requirements(ctx, blob.CredentialsForOrg(c.Query("org_key")), formID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, def)
}
