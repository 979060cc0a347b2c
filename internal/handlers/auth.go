package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/spectrumleads/formgate/internal/auth"
	"github.com/spectrumleads/formgate/pkg/crypto"
	"github.com/spectrumleads/formgate/pkg/errors"
	"github.com/spectrumleads/formgate/pkg/response"
)

// AuthHandler authenticates the configured admin account and issues access
// tokens for the admin API.
type AuthHandler struct {
	jwt          *iauth.JWTService
	username     string
	passwordHash string
}

func NewAuthHandler(jwt *iauth.JWTService, username, passwordHash string) *AuthHandler {
	return &AuthHandler{jwt: jwt, username: username, passwordHash: passwordHash}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if h.username == "" || h.passwordHash == "" ||
		req.Username != h.username ||
		!crypto.VerifyPassword(h.passwordHash, req.Password) {
		response.Error(c, errors.ErrInvalidCredentials)
		return
	}

	token, err := h.jwt.GenerateAccessToken(req.Username)
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, tokenResponse{AccessToken: token})
}
