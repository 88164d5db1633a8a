package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"panel-backend/internal/account"
	"panel-backend/internal/mw"
)

// Register creates a new account.
func (h *Handler) Register(c *gin.Context) {
	var req account.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.Accounts.Register(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, item{Object: "user", Attributes: transformUser(*user)})
}

// Login exchanges credentials for an API key.
func (h *Handler) Login(c *gin.Context) {
	var req account.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, user, err := h.Accounts.Login(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  item{Object: "user", Attributes: transformUser(*user)},
	})
}

// GetAccount returns the caller's account.
func (h *Handler) GetAccount(c *gin.Context) {
	c.JSON(http.StatusOK, item{Object: "user", Attributes: transformUser(*mw.CurrentUser(c))})
}

// UpdatePassword changes the caller's password.
func (h *Handler) UpdatePassword(c *gin.Context) {
	var req account.PasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.Accounts.UpdatePassword(c.Request.Context(), mw.CurrentUser(c).ID, req); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createAPIKeyRequest struct {
	Memo string `json:"description" binding:"max=500"`
}

// CreateAPIKey issues an additional API key for the caller.
func (h *Handler) CreateAPIKey(c *gin.Context) {
	var req createAPIKeyRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := h.Accounts.CreateAPIKey(c.Request.Context(), mw.CurrentUser(c).ID, req.Memo)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token})
}
